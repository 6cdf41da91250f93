// Package notify publishes high-similarity findings to an external
// knowledge base over a webhook.
package notify

import (
	"context"

	"github.com/mpatel/patminer/internal/github"
)

// Notifier publishes a finding to an external consumer.
type Notifier interface {
	Notify(ctx context.Context, finding github.Finding) error
}

// NopNotifier discards findings. Used when no webhook is configured.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, github.Finding) error { return nil }
