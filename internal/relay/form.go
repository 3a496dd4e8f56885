package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FormRelay posts submissions to a hosted form endpoint the way a browser
// form would. Success is any 2xx response; there are no retries.
type FormRelay struct {
	endpoint string
	client   *http.Client
}

func NewFormRelay(endpoint string, timeout time.Duration) *FormRelay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FormRelay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *FormRelay) Submit(ctx context.Context, s Submission) error {
	form := url.Values{}
	form.Set("name", s.Name)
	form.Set("email", s.Email)
	if s.Message != "" {
		form.Set("message", s.Message)
	}
	form.Set("_subject", s.subject())
	form.Set("kind", string(s.Kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post to relay: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
