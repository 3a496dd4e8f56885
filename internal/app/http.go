package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"animalzone/site/internal/docstore"
	"animalzone/site/internal/notify"
	"animalzone/site/internal/relay"
	"animalzone/site/internal/section"
	"animalzone/site/internal/util"
)

type HTTPServer struct {
	service        *Service
	logger         *zap.Logger
	static         http.Handler
	secureCookies  bool
	maxUploadBytes int64
}

func NewHTTPServer(service *Service, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUploadBytes := service.cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = section.DefaultMaxUploadBytes
	}
	return &HTTPServer{
		service:        service,
		logger:         logger,
		static:         staticHandler(),
		secureCookies:  service.cfg.SecureCookies,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Allow", "GET,HEAD,POST,DELETE,OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"storage": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["storage"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/metrics" {
		s.service.Metrics().Handler().ServeHTTP(w, r)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && strings.HasPrefix(r.URL.Path, "/static/") {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		s.static.ServeHTTP(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) > 0 && parts[0] == "api" {
		s.handleAPI(w, r, parts[1:])
		return
	}
	s.handlePage(w, r, parts)
}

func (s *HTTPServer) handleAPI(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && parts[0] == "sections" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"sections": s.service.Catalog().Sections})
		return

	case len(parts) == 3 && parts[0] == "sections" && parts[2] == "documents":
		switch r.Method {
		case http.MethodGet:
			s.handleListDocuments(w, r, parts[1])
		case http.MethodPost:
			s.handleUploadDocument(w, r, parts[1])
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return

	case len(parts) == 4 && parts[0] == "sections" && parts[2] == "documents":
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			s.handleDownloadDocument(w, r, parts[1], parts[3])
		case http.MethodDelete:
			s.handleDeleteDocument(w, r, parts[1], parts[3])
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return

	case len(parts) == 1 && parts[0] == "contact" && r.Method == http.MethodPost:
		s.handleSubmissionAPI(w, r, relay.KindContact)
		return

	case len(parts) == 1 && parts[0] == "sample-request" && r.Method == http.MethodPost:
		s.handleSubmissionAPI(w, r, relay.KindSample)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request, slug string) {
	profile := s.profileID(w, r)
	recorder := notify.NewRecorder()
	manager, err := s.service.OpenSection(r.Context(), profile, slug, recorder)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	if err := manager.Err(); err != nil {
		s.writeServiceError(w, err, recorder.Messages())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section":   manager.Section(),
		"documents": documentViews(slug, manager.Records()),
	})
}

func (s *HTTPServer) handleUploadDocument(w http.ResponseWriter, r *http.Request, slug string) {
	profile := s.profileID(w, r)
	sel, err := parseSelection(w, r, s.maxUploadBytes)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	recorder := notify.NewRecorder()
	record, manager, err := s.service.Upload(r.Context(), profile, slug, sel, recorder)
	if err != nil {
		s.writeServiceError(w, err, recorder.Messages())
		return
	}
	views := documentViews(slug, []docstore.Record{record})
	writeJSON(w, http.StatusCreated, map[string]any{
		"document":      views[0],
		"documents":     documentViews(slug, manager.Records()),
		"notifications": recorder.Messages(),
	})
}

func (s *HTTPServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request, slug, id string) {
	profile := s.profileID(w, r)
	recorder := notify.NewRecorder()
	manager, err := s.service.Delete(r.Context(), profile, slug, id, recorder)
	if err != nil {
		s.writeServiceError(w, err, recorder.Messages())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents":     documentViews(slug, manager.Records()),
		"notifications": recorder.Messages(),
	})
}

func (s *HTTPServer) handleDownloadDocument(w http.ResponseWriter, r *http.Request, slug, id string) {
	profile := s.profileID(w, r)
	record, mediaType, data, err := s.service.Document(r.Context(), profile, slug, id)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": record.DisplayName})
	if disposition == "" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleSubmissionAPI(w http.ResponseWriter, r *http.Request, kind relay.Kind) {
	submission, err := decodeSubmission(w, r, kind)
	if err == nil {
		err = s.service.Submit(r.Context(), submission)
	}
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "kind": kind})
}

func (s *HTTPServer) handlePage(w http.ResponseWriter, r *http.Request, parts []string) {
	get := r.Method == http.MethodGet || r.Method == http.MethodHead
	post := r.Method == http.MethodPost

	switch {
	case len(parts) == 0 && get:
		s.render(w, http.StatusOK, "home", pageData{Notices: s.takeFlash(w, r)})
		return
	case len(parts) == 1 && parts[0] == "sample" && post:
		s.handleSubmissionPage(w, r, relay.KindSample, "home")
		return
	case len(parts) == 1 && parts[0] == "faq" && get:
		s.render(w, http.StatusOK, "faq", pageData{Title: "FAQ"})
		return
	case len(parts) == 1 && parts[0] == "whats-inside" && get:
		s.render(w, http.StatusOK, "whats_inside", pageData{Title: "What's Inside"})
		return
	case len(parts) == 1 && parts[0] == "contact" && get:
		s.render(w, http.StatusOK, "contact", pageData{Title: "Contact"})
		return
	case len(parts) == 1 && parts[0] == "contact" && post:
		s.handleSubmissionPage(w, r, relay.KindContact, "contact")
		return
	case len(parts) == 1 && parts[0] == "shop" && get:
		http.Redirect(w, r, s.service.Catalog().StorefrontURL, http.StatusFound)
		return
	case len(parts) == 1 && parts[0] == "sections" && get:
		s.render(w, http.StatusOK, "sections", pageData{Title: "Activities", Notices: s.takeFlash(w, r)})
		return
	case len(parts) == 2 && parts[0] == "sections" && get:
		s.handleSectionPage(w, r, parts[1])
		return
	case len(parts) == 3 && parts[0] == "sections" && parts[2] == "upload" && post:
		s.handleSectionUpload(w, r, parts[1])
		return
	case len(parts) == 3 && parts[0] == "sections" && parts[2] == "delete" && post:
		s.handleSectionDelete(w, r, parts[1])
		return
	}

	s.render(w, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
}

func (s *HTTPServer) handleSectionPage(w http.ResponseWriter, r *http.Request, slug string) {
	profile := s.profileID(w, r)
	notices := s.takeFlash(w, r)
	recorder := notify.NewRecorder()
	manager, err := s.service.OpenSection(r.Context(), profile, slug, recorder)
	if err != nil {
		s.render(w, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
		return
	}
	sec := manager.Section()
	s.render(w, http.StatusOK, "section", pageData{
		Title:     sec.Title,
		Section:   sec,
		Documents: documentViews(slug, manager.Records()),
		Notices:   append(notices, recorder.Messages()...),
	})
}

func (s *HTTPServer) handleSectionUpload(w http.ResponseWriter, r *http.Request, slug string) {
	profile := s.profileID(w, r)
	recorder := notify.NewRecorder()
	sel, err := parseSelection(w, r, s.maxUploadBytes)
	switch {
	case errors.Is(err, section.ErrTooLarge):
		recorder.Error("That file is too large to upload.")
	case err != nil:
		recorder.Error("Please upload a valid PDF file.")
	default:
		_, _, err = s.service.Upload(r.Context(), profile, slug, sel, recorder)
		if isNotFound(err) {
			s.render(w, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
			return
		}
	}
	s.setFlash(w, recorder.Messages())
	http.Redirect(w, r, "/sections/"+slug, http.StatusSeeOther)
}

func (s *HTTPServer) handleSectionDelete(w http.ResponseWriter, r *http.Request, slug string) {
	profile := s.profileID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit)
	recorder := notify.NewRecorder()
	if err := r.ParseForm(); err != nil {
		recorder.Error("Could not delete the PDF. Please try again.")
	} else {
		_, err = s.service.Delete(r.Context(), profile, slug, r.PostFormValue("id"), recorder)
		if isNotFound(err) {
			s.render(w, http.StatusNotFound, "not_found", pageData{Title: "Not found"})
			return
		}
	}
	s.setFlash(w, recorder.Messages())
	http.Redirect(w, r, "/sections/"+slug, http.StatusSeeOther)
}

func (s *HTTPServer) handleSubmissionPage(w http.ResponseWriter, r *http.Request, kind relay.Kind, page string) {
	submission, err := decodeSubmission(w, r, kind)
	if err == nil {
		err = s.service.Submit(r.Context(), submission)
	}
	if err == nil {
		s.render(w, http.StatusOK, page, pageData{Form: formState{Sent: true}})
		return
	}

	state := formState{Values: submission}
	var validationErr *relay.ValidationError
	if errors.As(err, &validationErr) {
		state.Errors = validationErr.Fields
	} else {
		state.Failure = "Sorry, your message could not be sent. Please try again later."
	}
	status, _, _, _ := mapError(err)
	s.render(w, status, page, pageData{Form: state})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error, notices []notify.Message) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.String("code", code), zap.Error(err))
	}
	if details == nil && len(notices) > 0 {
		details = map[string]any{"notifications": notices}
	}
	writeError(w, status, code, message, details)
}

func isNotFound(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Status == http.StatusNotFound
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set("X-Request-ID", requestID)
		writer.Header().Set("Cache-Control", "no-store")

		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				s.logger.Error("handler panic", zap.String("request_id", requestID), zap.Any("panic", recovered))
				if !writer.wrote {
					writeError(writer, http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil)
				}
			}
			elapsed := time.Since(started)
			s.service.Metrics().Request(r.Method, writer.status, elapsed.Seconds())
			s.logger.Info("request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", writer.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
			)
		}()

		next.ServeHTTP(writer, r)
	})
}

type requestIDKey struct{}

// RequestID returns the id the middleware attached to ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.status = status
	r.wrote = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(p)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
