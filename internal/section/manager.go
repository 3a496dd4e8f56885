// Package section implements the per-section document manager: one Manager
// is a single activated view of a section's collection.
package section

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"animalzone/site/internal/catalog"
	"animalzone/site/internal/docstore"
	"animalzone/site/internal/notify"
	"animalzone/site/internal/util"
)

const (
	pdfMediaType          = "application/pdf"
	DefaultMaxUploadBytes = 10 << 20
)

var (
	ErrNotPDF   = errors.New("selected file is not a PDF")
	ErrNoFile   = errors.New("no file selected")
	ErrRead     = errors.New("could not read selected file")
	ErrTooLarge = errors.New("selected file is too large")
	ErrBusy     = errors.New("another operation is in progress")
)

type State string

const (
	StateLoaded    State = "loaded"
	StateUploading State = "uploading"
	StateDeleting  State = "deleting"
)

// Store is the subset of the document store a Manager needs.
type Store interface {
	Load(ctx context.Context, key string) ([]docstore.Record, error)
	Append(ctx context.Context, key string, record docstore.Record) ([]docstore.Record, error)
	Remove(ctx context.Context, key, id string) ([]docstore.Record, error)
}

// Selection is the single file a visitor picked for upload.
type Selection interface {
	Name() string
	ContentType() string
	Open() (io.ReadCloser, error)
}

// Clearer is implemented by selections that must be reset once processed so
// the same file can be chosen again.
type Clearer interface {
	Clear()
}

type Manager struct {
	section  catalog.Section
	store    Store
	notifier notify.Notifier
	logger   *zap.Logger
	maxBytes int64
	newID    func() string

	mu      sync.Mutex
	state   State
	records []docstore.Record
	loadErr error
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxBytes = n
		}
	}
}

// WithIDGenerator replaces the random record identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// Open activates a view of sec: the collection is loaded once and held as
// the view's state. A load failure leaves an empty, usable view.
func Open(ctx context.Context, store Store, sec catalog.Section, notifier notify.Notifier, opts ...Option) *Manager {
	m := &Manager{
		section:  sec,
		store:    store,
		notifier: notifier,
		logger:   zap.NewNop(),
		maxBytes: DefaultMaxUploadBytes,
		newID:    func() string { return util.NewID("pdf") },
		state:    StateLoaded,
	}
	for _, opt := range opts {
		opt(m)
	}

	records, err := store.Load(ctx, sec.Key)
	if err != nil {
		m.logger.Error("load section collection", zap.String("section", sec.Key), zap.Error(err))
		m.loadErr = err
		records = []docstore.Record{}
		m.notify(notify.LevelError, "Could not load your PDFs. Please try again later.")
	}
	m.records = records
	return m
}

func (m *Manager) Section() catalog.Section {
	return m.section
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error from the initial load, if any.
func (m *Manager) Err() error {
	return m.loadErr
}

// Records returns the current view of the collection in display order.
func (m *Manager) Records() []docstore.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]docstore.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Upload validates, reads and stores one selected file. The selection is
// cleared afterwards whatever the outcome.
func (m *Manager) Upload(ctx context.Context, sel Selection) (docstore.Record, error) {
	if sel == nil {
		m.notify(notify.LevelError, "Please upload a valid PDF file.")
		return docstore.Record{}, ErrNoFile
	}
	defer clearSelection(sel)

	if !IsPDF(sel.ContentType()) {
		m.notify(notify.LevelError, "Please upload a valid PDF file.")
		return docstore.Record{}, fmt.Errorf("%w: %q", ErrNotPDF, sel.ContentType())
	}

	if err := m.enter(StateUploading); err != nil {
		return docstore.Record{}, err
	}
	defer m.enter(StateLoaded)

	name := displayName(sel.Name())
	data, err := readSelection(ctx, sel, m.maxBytes)
	if err != nil {
		m.logger.Warn("read upload", zap.String("section", m.section.Key), zap.String("file", name), zap.Error(err))
		if errors.Is(err, ErrTooLarge) {
			m.notify(notify.LevelError, fmt.Sprintf("%q is too large to upload.", name))
		} else {
			m.notify(notify.LevelError, fmt.Sprintf("Could not read %q.", name))
		}
		return docstore.Record{}, err
	}

	record := docstore.Record{
		ID:          m.newID(),
		DisplayName: name,
		Payload:     docstore.EncodePayload(pdfMediaType, data),
	}
	updated, err := m.store.Append(ctx, m.section.Key, record)
	if err != nil {
		m.logger.Error("store upload", zap.String("section", m.section.Key), zap.String("file", name), zap.Error(err))
		m.notify(notify.LevelError, fmt.Sprintf("Could not save %q. Storage may be full.", name))
		return docstore.Record{}, err
	}

	m.mu.Lock()
	m.records = updated
	m.mu.Unlock()
	m.notify(notify.LevelSuccess, fmt.Sprintf("%q uploaded successfully!", name))
	return record, nil
}

// Delete removes the record with id. Unknown ids are a no-op.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.enter(StateDeleting); err != nil {
		return err
	}
	defer m.enter(StateLoaded)

	updated, err := m.store.Remove(ctx, m.section.Key, id)
	if err != nil {
		m.logger.Error("delete upload", zap.String("section", m.section.Key), zap.String("id", id), zap.Error(err))
		m.notify(notify.LevelError, "Could not delete the PDF. Please try again.")
		return err
	}

	m.mu.Lock()
	m.records = updated
	m.mu.Unlock()
	m.notify(notify.LevelInfo, "PDF deleted.")
	return nil
}

// enter moves the view into next. Leaving StateLoaded for a busy state is
// only allowed from StateLoaded.
func (m *Manager) enter(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next != StateLoaded && m.state != StateLoaded {
		return ErrBusy
	}
	m.state = next
	return nil
}

func (m *Manager) notify(level notify.Level, message string) {
	notify.Deliver(m.notifier, level, message)
}

// IsPDF reports whether a declared content type names a PDF document.
func IsPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == pdfMediaType
}

func displayName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}

func clearSelection(sel Selection) {
	if c, ok := sel.(Clearer); ok {
		c.Clear()
	}
}

func readSelection(ctx context.Context, sel Selection, maxBytes int64) ([]byte, error) {
	rc, err := sel.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(&ctxReader{ctx: ctx, r: rc}, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %w: limit is %d bytes", ErrRead, ErrTooLarge, maxBytes)
	}
	return data, nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
