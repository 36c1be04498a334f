package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/portico/pkg/adapters/memory"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportSink(t *testing.T) {
	sink := memory.NewReportSink()
	assert.Nil(t, sink.Latest())

	first := &domain.ValidationReport{Clean: true}
	second := &domain.ValidationReport{Visited: 2}
	require.NoError(t, sink.Publish(context.Background(), first))
	require.NoError(t, sink.Publish(context.Background(), second))

	assert.Same(t, second, sink.Latest())
	assert.Equal(t, 2, sink.Published())
}
