package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"animalzone/site/internal/catalog"
	"animalzone/site/internal/config"
	"animalzone/site/internal/docstore"
	"animalzone/site/internal/metrics"
	"animalzone/site/internal/notify"
	"animalzone/site/internal/relay"
	"animalzone/site/internal/section"
)

// Service ties the catalog, the document store and the form relay together
// for the HTTP layer. Every section operation works on a freshly opened
// section view scoped to the visitor's profile.
type Service struct {
	cfg     config.Config
	catalog *catalog.Catalog
	store   *docstore.Store
	relay   relay.Relay
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(cfg config.Config, cat *catalog.Catalog, store *docstore.Store, rel relay.Relay, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rel == nil {
		rel = relay.Disabled{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		cfg:     cfg,
		catalog: cat,
		store:   store,
		relay:   rel,
		metrics: m,
		logger:  logger,
	}
}

// DocumentView is the listing form of a record; the payload is served
// separately.
type DocumentView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) section(slug string) (catalog.Section, error) {
	sec, ok := s.catalog.BySlug(slug)
	if !ok {
		return catalog.Section{}, domainError(http.StatusNotFound, "SECTION_NOT_FOUND", "Section not found", map[string]any{"slug": slug})
	}
	return sec, nil
}

// OpenSection activates the section view for one visitor profile.
func (s *Service) OpenSection(ctx context.Context, profile, slug string, notifier notify.Notifier) (*section.Manager, error) {
	sec, err := s.section(slug)
	if err != nil {
		return nil, err
	}
	fanout := notify.Fanout{notify.NewLogger(s.logger.With(zap.String("section", sec.Key)))}
	if notifier != nil {
		fanout = append(fanout, notifier)
	}
	return section.Open(ctx, s.store.Scoped(profile), sec, fanout,
		section.WithLogger(s.logger),
		section.WithMaxUploadBytes(s.cfg.MaxUploadBytes),
	), nil
}

func (s *Service) Upload(ctx context.Context, profile, slug string, sel section.Selection, notifier notify.Notifier) (docstore.Record, *section.Manager, error) {
	manager, err := s.OpenSection(ctx, profile, slug, notifier)
	if err != nil {
		return docstore.Record{}, nil, err
	}
	record, err := manager.Upload(ctx, sel)
	s.metrics.Upload(manager.Section().Key, resultLabel(err))
	return record, manager, err
}

func (s *Service) Delete(ctx context.Context, profile, slug, id string, notifier notify.Notifier) (*section.Manager, error) {
	manager, err := s.OpenSection(ctx, profile, slug, notifier)
	if err != nil {
		return nil, err
	}
	err = manager.Delete(ctx, id)
	s.metrics.Deletion(manager.Section().Key, resultLabel(err))
	return manager, err
}

// Document returns the stored record together with its decoded content.
func (s *Service) Document(ctx context.Context, profile, slug, id string) (docstore.Record, string, []byte, error) {
	sec, err := s.section(slug)
	if err != nil {
		return docstore.Record{}, "", nil, err
	}
	record, ok, err := s.store.Scoped(profile).Find(ctx, sec.Key, id)
	if err != nil {
		return docstore.Record{}, "", nil, err
	}
	if !ok {
		return docstore.Record{}, "", nil, domainError(http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found", nil)
	}
	mediaType, data, err := docstore.DecodePayload(record.Payload)
	if err != nil {
		s.logger.Warn("undecodable payload", zap.String("section", sec.Key), zap.String("id", id), zap.Error(err))
		return docstore.Record{}, "", nil, domainError(http.StatusUnprocessableEntity, "DOCUMENT_CORRUPT", "Document cannot be displayed", nil)
	}
	return record, mediaType, data, nil
}

// Submit validates and relays a contact or sample-request form.
func (s *Service) Submit(ctx context.Context, submission relay.Submission) error {
	normalized, err := submission.Normalize()
	if err != nil {
		s.metrics.Relay(string(normalized.Kind), "invalid")
		return err
	}
	if err := s.relay.Submit(ctx, normalized); err != nil {
		s.logger.Warn("form relay failed", zap.String("kind", string(normalized.Kind)), zap.Error(err))
		s.metrics.Relay(string(normalized.Kind), resultLabel(err))
		return err
	}
	s.metrics.Relay(string(normalized.Kind), "ok")
	return nil
}

func documentViews(slug string, records []docstore.Record) []DocumentView {
	views := make([]DocumentView, 0, len(records))
	for _, record := range records {
		views = append(views, DocumentView{
			ID:   record.ID,
			Name: record.DisplayName,
			URL:  "/api/sections/" + slug + "/documents/" + record.ID,
		})
	}
	return views
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, section.ErrNotPDF), errors.Is(err, section.ErrNoFile):
		return "rejected"
	case errors.Is(err, section.ErrTooLarge):
		return "too_large"
	case errors.Is(err, section.ErrRead):
		return "read_failed"
	case errors.Is(err, docstore.ErrWrite):
		return "write_failed"
	case errors.Is(err, docstore.ErrRead):
		return "read_failed"
	case errors.Is(err, relay.ErrRejected):
		return "rejected"
	case errors.Is(err, relay.ErrNotConfigured), errors.Is(err, relay.ErrUnreachable):
		return "unavailable"
	default:
		return "error"
	}
}
