package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Store implements ports.PartitionStore using Redis.
//
// Keys are kept in a sorted set scored by a registration sequence, so
// enumeration order is registration order. Definitions are stored as JSON.
type Store struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
}

// Option configures the redis adapters.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: "portico:", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates a go-redis client.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewStore creates a partition store from an existing client.
func NewStore(client *backend.Client, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		client: client,
		prefix: o.prefix,
		logger: o.logger,
	}
}

var _ ports.PartitionStore = (*Store)(nil)

func (s *Store) indexKey() string {
	return s.prefix + "partitions"
}

func (s *Store) seqKey() string {
	return s.prefix + "partitions:seq"
}

func (s *Store) key(k domain.PartitionKey) string {
	return s.prefix + "partition:" + string(k)
}

// Put registers spec, or replaces its definition keeping its position.
func (s *Store) Put(ctx context.Context, spec domain.PartitionSpec) error {
	if spec.Key.IsEmpty() {
		return domain.ErrEmptyDestination
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal partition: %w", err)
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(spec.Key), data, 0)
	// NX keeps the original score when the partition is already registered.
	pipe.ZAddNX(ctx, s.indexKey(), backend.Z{
		Score:  float64(seq),
		Member: string(spec.Key),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	s.logger.Debug("partition saved", "partition", spec.Key, "portals", len(spec.Portals))
	return nil
}

// Remove unregisters key and deletes its definition.
func (s *Store) Remove(ctx context.Context, key domain.PartitionKey) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), string(key))
	_, err := pipe.Exec(ctx)
	return err
}

// Partitions returns keys in registration order.
func (s *Store) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	keys := make([]domain.PartitionKey, len(members))
	for i, m := range members {
		keys[i] = domain.PartitionKey(m)
	}
	return keys, nil
}

// Contains reports whether key is registered.
func (s *Store) Contains(ctx context.Context, key domain.PartitionKey) (bool, error) {
	_, err := s.client.ZScore(ctx, s.indexKey(), string(key)).Result()
	if errors.Is(err, backend.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check partition: %w", err)
	}
	return true, nil
}

// GetPartition loads the definition of key.
func (s *Store) GetPartition(ctx context.Context, key domain.PartitionKey) (domain.PartitionSpec, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.PartitionSpec{}, fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, key)
		}
		return domain.PartitionSpec{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var spec domain.PartitionSpec
	if err := json.Unmarshal([]byte(val), &spec); err != nil {
		return domain.PartitionSpec{}, fmt.Errorf("failed to unmarshal partition: %w", err)
	}
	return spec, nil
}
