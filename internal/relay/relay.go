// Package relay forwards contact and free-sample form submissions to the
// site owner.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrRejected means the relay endpoint answered with a non-success status.
	ErrRejected = errors.New("submission rejected by relay")
	// ErrUnreachable means the relay could not be contacted at all.
	ErrUnreachable = errors.New("relay unreachable")
	// ErrNotConfigured means no relay is available.
	ErrNotConfigured = errors.New("form relay not configured")
)

type Kind string

const (
	KindContact Kind = "contact"
	KindSample  Kind = "sample"
)

type Submission struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ValidationError lists the offending fields of a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"name", "email", "message"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "invalid submission: " + strings.Join(parts, ", ")
}

// Normalize trims the submission and checks required fields. A message is
// required for contact submissions only.
func (s Submission) Normalize() (Submission, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)
	if s.Kind == "" {
		s.Kind = KindContact
	}

	fields := map[string]string{}
	if s.Name == "" {
		fields["name"] = "is required"
	}
	if s.Email == "" {
		fields["email"] = "is required"
	} else if addr, err := mail.ParseAddress(s.Email); err != nil || addr.Address != s.Email {
		fields["email"] = "is not a valid address"
	}
	if s.Kind == KindContact && s.Message == "" {
		fields["message"] = "is required"
	}
	if len(fields) > 0 {
		return s, &ValidationError{Fields: fields}
	}
	return s, nil
}

func (s Submission) subject() string {
	if s.Kind == KindSample {
		return fmt.Sprintf("Free sample request from %s", s.Name)
	}
	return fmt.Sprintf("Contact message from %s", s.Name)
}

// Relay delivers a validated submission.
type Relay interface {
	Submit(ctx context.Context, s Submission) error
}

// Disabled is the Relay used when nothing is configured.
type Disabled struct{}

func (Disabled) Submit(context.Context, Submission) error {
	return ErrNotConfigured
}
