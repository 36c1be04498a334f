package memory

import (
	"context"
	"sync"

	"github.com/aretw0/portico/pkg/domain"
)

// ReportSink implements ports.ReportSink by keeping the latest report in memory.
type ReportSink struct {
	mu        sync.RWMutex
	latest    *domain.ValidationReport
	published int
}

// NewReportSink creates an empty sink.
func NewReportSink() *ReportSink {
	return &ReportSink{}
}

// Publish replaces the latest report.
func (s *ReportSink) Publish(ctx context.Context, report *domain.ValidationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = report
	s.published++
	return nil
}

// Latest returns the most recently published report, or nil.
func (s *ReportSink) Latest() *domain.ValidationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Published returns how many reports have been received.
func (s *ReportSink) Published() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published
}
