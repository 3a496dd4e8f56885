// Package notify carries transient user-facing notices (success, error, info)
// from the section manager to whatever surface shows them.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Notifier accepts fire-and-forget notices.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// Recorder collects notices so a request handler can hand them back to the
// visitor.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) { r.add(LevelSuccess, message) }
func (r *Recorder) Error(message string)   { r.add(LevelError, message) }
func (r *Recorder) Info(message string)    { r.add(LevelInfo, message) }

func (r *Recorder) add(level Level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: text})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Logger writes notices to a zap logger.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Success(message string) {
	l.logger.Info("notice", zap.String("level", string(LevelSuccess)), zap.String("text", message))
}

func (l *Logger) Error(message string) {
	l.logger.Warn("notice", zap.String("level", string(LevelError)), zap.String("text", message))
}

func (l *Logger) Info(message string) {
	l.logger.Info("notice", zap.String("level", string(LevelInfo)), zap.String("text", message))
}

// Fanout delivers each notice to every notifier in order.
type Fanout []Notifier

func (f Fanout) Success(message string) {
	for _, n := range f {
		Deliver(n, LevelSuccess, message)
	}
}

func (f Fanout) Error(message string) {
	for _, n := range f {
		Deliver(n, LevelError, message)
	}
}

func (f Fanout) Info(message string) {
	for _, n := range f {
		Deliver(n, LevelInfo, message)
	}
}

// Deliver sends one notice and swallows any panic raised by the notifier,
// so a broken surface cannot interfere with the caller.
func Deliver(n Notifier, level Level, message string) {
	if n == nil {
		return
	}
	defer func() { _ = recover() }()
	switch level {
	case LevelSuccess:
		n.Success(message)
	case LevelError:
		n.Error(message)
	default:
		n.Info(message)
	}
}
