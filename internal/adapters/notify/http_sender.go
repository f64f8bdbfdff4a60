package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// HTTPSender posts push and email requests to the notification service.
// An empty URL disables that channel.
type HTTPSender struct {
	client   *http.Client
	pushURL  string
	emailURL string
	token    string
}

type HTTPSenderConfig struct {
	PushURL     string
	EmailURL    string
	BearerToken string
	Timeout     time.Duration
}

func NewHTTPSender(cfg HTTPSenderConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{
		client:   &http.Client{Timeout: timeout},
		pushURL:  strings.TrimSpace(cfg.PushURL),
		emailURL: strings.TrimSpace(cfg.EmailURL),
		token:    cfg.BearerToken,
	}
}

func (s *HTTPSender) SendPush(ctx context.Context, msg ports.PushMessage) error {
	if s.pushURL == "" {
		return nil
	}
	return s.post(ctx, s.pushURL, msg)
}

func (s *HTTPSender) SendEmail(ctx context.Context, msg ports.EmailMessage) error {
	if s.emailURL == "" {
		return nil
	}
	return s.post(ctx, s.emailURL, msg)
}

func (s *HTTPSender) post(ctx context.Context, url string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}

var (
	_ ports.PushSender  = (*HTTPSender)(nil)
	_ ports.EmailSender = (*HTTPSender)(nil)
)
