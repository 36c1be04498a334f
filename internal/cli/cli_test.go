package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/portico/internal/config"
	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/internal/testutils"
	redisAdapter "github.com/aretw0/portico/pkg/adapters/redis"
	"github.com/aretw0/portico/pkg/domain"
)

func connectedFiles() map[string]string {
	return map[string]string{
		"hub.md": `---
description: Central hub
portals:
  - id: 1
    to: forest#1
---
`,
		"forest.md": `---
portals:
  - id: 1
    to: hub#1
---
`,
	}
}

func brokenFiles() map[string]string {
	return map[string]string{
		"hub.md": `---
portals:
  - id: 1
    to: forest#1
  - id: 2
---
`,
		"forest.md": `---
portals:
  - id: 1
    to: hub#7
---
`,
	}
}

func testOptions(dir string) Options {
	opts := FromConfig(config.Default())
	opts.Dir = dir
	opts.LogLevel = ""
	return opts
}

func TestRunValidate_Clean(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, connectedFiles()))

	var out bytes.Buffer
	require.NoError(t, RunValidate(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "2 partitions checked, no issues found.")
}

func TestRunValidate_IssuesFail(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, brokenFiles()))
	opts.CheckDisconnected = true

	var out bytes.Buffer
	err := RunValidate(context.Background(), opts, &out)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out.String(), "## forest")
	assert.Contains(t, out.String(), "Portal 2 has no destination")
}

func TestRunValidate_JSON(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, brokenFiles()))
	opts.JSON = true

	var out bytes.Buffer
	err := RunValidate(context.Background(), opts, &out)
	assert.ErrorIs(t, err, ErrValidationFailed)

	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.Visited)
	assert.Equal(t, 1, report.CountByKind()[domain.IssueDanglingDestination])
	assert.Zero(t, report.CountByKind()[domain.IssueDisconnected])
}

func TestRunTravel(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, connectedFiles()))

	var out bytes.Buffer
	err := RunTravel(context.Background(), opts, &out, "forest", 1)
	assert.Error(t, err, "start partition required")

	opts.StartPartition = "hub"
	out.Reset()
	require.NoError(t, RunTravel(context.Background(), opts, &out, "forest", 1))
	assert.Contains(t, out.String(), "Started at 'hub'.")
	assert.Contains(t, out.String(), "Arrived at portal 1 of 'forest' from 'hub'.")
}

func TestRunTravel_UnknownDestination(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, connectedFiles()))
	opts.StartPartition = "hub"

	err := RunTravel(context.Background(), opts, &bytes.Buffer{}, "nowhere", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownDestinationPartition)
}

func TestRunGraph(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, brokenFiles()))
	opts.StartPartition = "hub"

	var out bytes.Buffer
	require.NoError(t, RunGraph(context.Background(), opts, &out, true))

	assert.Contains(t, out.String(), "graph LR")
	assert.Contains(t, out.String(), "hub__7{{\"hub#7 ?\"}}")
	assert.Contains(t, out.String(), "class hub active;")
	assert.Contains(t, out.String(), "class forest__1 issue;")
}

func TestCreateSystem_RedisStoreAndSink(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := testOptions(testutils.SetupWorldDir(t, connectedFiles()))
	opts.Redis.Addr = mr.Addr()
	opts.RedisStore = true
	opts.StartPartition = "forest"

	ctx := context.Background()
	sys, cleanup, err := createSystem(ctx, opts, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	_, isRedis := sys.Store().(*redisAdapter.Store)
	assert.True(t, isRedis)
	assert.Equal(t, domain.PartitionKey("forest"), sys.ActivePartition())

	report, err := sys.Validate(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Clean)

	client := redisAdapter.NewClient(mr.Addr(), "", 0)
	defer client.Close()
	latest, err := redisAdapter.NewReportSink(client).Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Visited)
}

func TestCreateSystem_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := testOptions(testutils.SetupWorldDir(t, connectedFiles()))
	opts.Redis.Addr = addr

	_, cleanup, err := createSystem(context.Background(), opts, logging.NewNop())
	assert.Error(t, err)
	assert.NotNil(t, cleanup)
}

func TestCreateSystem_CuratedPartitions(t *testing.T) {
	opts := testOptions(testutils.SetupWorldDir(t, brokenFiles()))
	opts.Partitions = []string{"hub.md"}

	ctx := context.Background()
	sys, cleanup, err := createSystem(ctx, opts, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	report, err := sys.Validate(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Visited)
	// hub links into forest, which is defined on disk but not registered.
	assert.Equal(t, 1, report.CountByKind()[domain.IssueDanglingDestination])
}
