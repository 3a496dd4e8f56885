package app

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"animalzone/site/internal/catalog"
	"animalzone/site/internal/notify"
	"animalzone/site/internal/relay"
	"animalzone/site/internal/util"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	profileCookie = "aaz_profile"
	flashCookie   = "aaz_flash"
	profileMaxAge = 365 * 24 * time.Hour
)

var pages = parsePages("home", "sections", "section", "faq", "contact", "whats_inside", "not_found")

func parsePages(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		parsed[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return parsed
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type formState struct {
	Sent    bool
	Values  relay.Submission
	Errors  map[string]string
	Failure string
}

type pageData struct {
	Title     string
	Catalog   *catalog.Catalog
	Section   catalog.Section
	Documents []DocumentView
	Notices   []notify.Message
	Form      formState
}

func (s *HTTPServer) render(w http.ResponseWriter, status int, name string, data pageData) {
	data.Catalog = s.service.Catalog()
	tmpl, ok := pages[name]
	if !ok {
		s.logger.Error("unknown page template", zap.String("page", name))
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// profileID returns the visitor profile from the request cookie, issuing a
// new one when it is missing or malformed.
func (s *HTTPServer) profileID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(profileCookie); err == nil && util.IsID("profile", cookie.Value) {
		return cookie.Value
	}
	id := util.NewID("profile")
	http.SetCookie(w, &http.Cookie{
		Name:     profileCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(profileMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *HTTPServer) setFlash(w http.ResponseWriter, messages []notify.Message) {
	if len(messages) == 0 {
		return
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the notices carried over from the previous
// request.
func (s *HTTPServer) takeFlash(w http.ResponseWriter, r *http.Request) []notify.Message {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var messages []notify.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}
