package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/portico"
	redisAdapter "github.com/aretw0/portico/pkg/adapters/redis"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/registry"
)

// createSystem initializes a Portico system with standard CLI conventions.
// The returned cleanup releases external connections and is never nil.
func createSystem(ctx context.Context, opts Options, logger *slog.Logger, extra ...portico.Option) (*portico.System, func(), error) {
	cleanup := func() {}

	sysOpts := []portico.Option{
		portico.WithLogger(logger),
		portico.WithLoadDelay(opts.LoadDelay),
		portico.WithActivationGate(opts.ActivationGate),
	}
	if opts.Debug {
		sysOpts = append(sysOpts, portico.WithLifecycleHooks(createDebugHooks(logger)))
	}
	if len(opts.Partitions) > 0 {
		keys := make([]domain.PartitionKey, 0, len(opts.Partitions))
		for _, p := range opts.Partitions {
			keys = append(keys, domain.NormalizeKey(p))
		}
		sysOpts = append(sysOpts, portico.WithRegistry(registry.NewRegistry(keys...)))
	}

	if opts.Redis.Addr != "" {
		client := redisAdapter.NewClient(opts.Redis.Addr, opts.Redis.Password, opts.Redis.DB)
		cleanup = func() { _ = client.Close() }

		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("redis unavailable at %s: %w", opts.Redis.Addr, err)
		}

		redisOpts := []redisAdapter.Option{
			redisAdapter.WithPrefix(opts.Redis.Prefix),
			redisAdapter.WithLogger(logger),
		}
		sysOpts = append(sysOpts, portico.WithReportSink(redisAdapter.NewReportSink(client, redisOpts...)))

		if opts.RedisStore {
			store := redisAdapter.NewStore(client, redisOpts...)
			if err := seedStore(ctx, opts.Dir, store, logger); err != nil {
				cleanup()
				return nil, func() {}, err
			}
			sysOpts = append(sysOpts, portico.WithStore(store))
		}
	}

	sysOpts = append(sysOpts, extra...)
	sys, err := portico.New(opts.Dir, sysOpts...)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("error initializing portico: %w", err)
	}

	if opts.StartPartition != "" {
		if err := sys.Start(ctx, domain.NormalizeKey(opts.StartPartition)); err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}
	return sys, cleanup, nil
}

// seedStore copies every partition found in dir into store, in lexical order.
func seedStore(ctx context.Context, dir string, store *redisAdapter.Store, logger *slog.Logger) error {
	source, err := portico.New(dir, portico.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to read partitions to seed: %w", err)
	}
	specs, err := source.Inspect(ctx)
	if err != nil {
		return fmt.Errorf("failed to read partitions to seed: %w", err)
	}
	for _, spec := range specs {
		if err := store.Put(ctx, spec); err != nil {
			return fmt.Errorf("failed to seed %s: %w", spec.Key, err)
		}
	}
	logger.Info("redis store seeded", "partitions", len(specs))
	return nil
}
