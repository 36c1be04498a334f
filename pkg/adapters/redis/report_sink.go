package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// ReportSink implements ports.ReportSink. It stores the latest report and
// publishes it on a channel for live diagnostic panels.
type ReportSink struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewReportSink creates a report sink from an existing client.
func NewReportSink(client *backend.Client, opts ...Option) *ReportSink {
	o := buildOptions(opts)
	return &ReportSink{
		client: client,
		prefix: o.prefix,
		ttl:    o.ttl,
		logger: o.logger,
	}
}

// WithReportTTL expires the stored report after ttl.
func WithReportTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

var _ ports.ReportSink = (*ReportSink)(nil)

// Channel returns the pub/sub channel reports are published on.
func (s *ReportSink) Channel() string {
	return s.prefix + "reports"
}

func (s *ReportSink) latestKey() string {
	return s.prefix + "report:latest"
}

// Publish stores report as the latest one and broadcasts it.
func (s *ReportSink) Publish(ctx context.Context, report *domain.ValidationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.latestKey(), data, s.ttl)
	pipe.Publish(ctx, s.Channel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// Latest returns the stored report, or nil if there is none.
func (s *ReportSink) Latest(ctx context.Context) (*domain.ValidationReport, error) {
	val, err := s.client.Get(ctx, s.latestKey()).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report domain.ValidationReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// Subscribe streams published reports until ctx is done.
// Malformed payloads are logged and skipped.
func (s *ReportSink) Subscribe(ctx context.Context) (<-chan *domain.ValidationReport, error) {
	sub := s.client.Subscribe(ctx, s.Channel())
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := make(chan *domain.ValidationReport, 1)
	go func() {
		defer close(ch)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var report domain.ValidationReport
				if err := json.Unmarshal([]byte(msg.Payload), &report); err != nil {
					s.logger.Warn("skipping malformed report", "err", err)
					continue
				}
				select {
				case ch <- &report:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
