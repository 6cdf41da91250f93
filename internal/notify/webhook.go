package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mpatel/patminer/internal/github"
	"github.com/mpatel/patminer/internal/retry"
)

// WebhookNotifier POSTs findings as JSON to a knowledge-base webhook.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier with the given webhook URL.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// webhookPayload is the wire shape consumed by the knowledge base.
type webhookPayload struct {
	PatternType     string   `json:"pattern_type"`
	Repos           []string `json:"repos"`
	SimilarityScore float64  `json:"similarity_score"`
	Description     string   `json:"description"`
	Timestamp       string   `json:"timestamp"`
}

// Notify posts the finding, retrying with backoff on failure.
func (w *WebhookNotifier) Notify(ctx context.Context, finding github.Finding) error {
	payload := webhookPayload{
		PatternType:     finding.PatternType,
		Repos:           finding.Repos,
		SimilarityScore: finding.SimilarityScore,
		Description:     finding.Description,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	return retry.Do(ctx, retry.DefaultMaxAttempts, func() error {
		return w.post(ctx, body)
	})
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
