package loam

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
	"github.com/aretw0/portico/pkg/ports"
)

// Store adapts a Loam repository to ports.PartitionStore.
// Every document is a partition; its frontmatter lists the portals.
type Store struct {
	Repo   *loam.TypedRepository[PartitionMetadata]
	raw    core.Repository
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures a logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Loam-backed partition store.
func New(repo core.Repository, opts ...Option) *Store {
	s := &Store{
		Repo:   loam.NewTypedRepository[PartitionMetadata](repo),
		raw:    repo,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ ports.PartitionStore = (*Store)(nil)
	_ ports.Watchable      = (*Store)(nil)
)

type entry struct {
	docID string
	meta  PartitionMetadata
}

// index lists every document keyed by its normalized partition key.
func (s *Store) index(ctx context.Context) (map[domain.PartitionKey]entry, []domain.PartitionKey, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loam list failed: %w", err)
	}

	byKey := make(map[domain.PartitionKey]entry, len(docs))
	keys := make([]domain.PartitionKey, 0, len(docs))
	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise the document ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		key := domain.NormalizeKey(rawID)

		if existing, ok := byKey[key]; ok {
			return nil, nil, fmt.Errorf("collision detected: partition '%s' is defined in both '%s' and '%s'", key, existing.docID, doc.ID)
		}
		byKey[key] = entry{docID: doc.ID, meta: doc.Data}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return byKey, keys, nil
}

// Partitions returns every partition key in lexical order.
func (s *Store) Partitions(ctx context.Context) ([]domain.PartitionKey, error) {
	_, keys, err := s.index(ctx)
	return keys, err
}

// Contains reports whether a document defines key.
func (s *Store) Contains(ctx context.Context, key domain.PartitionKey) (bool, error) {
	byKey, _, err := s.index(ctx)
	if err != nil {
		return false, err
	}
	_, ok := byKey[key]
	return ok, nil
}

// GetPartition decodes the document defining key.
func (s *Store) GetPartition(ctx context.Context, key domain.PartitionKey) (domain.PartitionSpec, error) {
	// Loam resolves "forest" to "forest.md" directly.
	if doc, err := s.Repo.Get(ctx, string(key)); err == nil {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		if domain.NormalizeKey(rawID) == key {
			return s.decode(key, doc.ID, doc.Data)
		}
	}

	// The key may come from an explicit frontmatter id that differs from the file name.
	byKey, _, err := s.index(ctx)
	if err != nil {
		return domain.PartitionSpec{}, err
	}
	e, ok := byKey[key]
	if !ok {
		return domain.PartitionSpec{}, fmt.Errorf("%w: %s", domain.ErrPartitionNotFound, key)
	}
	return s.decode(key, e.docID, e.meta)
}

func (s *Store) decode(key domain.PartitionKey, docID string, meta PartitionMetadata) (domain.PartitionSpec, error) {
	spec, err := meta.toSpec(key)
	if err != nil {
		return domain.PartitionSpec{}, fmt.Errorf("invalid partition document %s: %w", docID, err)
	}
	return spec, nil
}

// SavePartition writes spec as a markdown document with YAML frontmatter.
func (s *Store) SavePartition(ctx context.Context, spec domain.PartitionSpec) error {
	meta := map[string]any{"id": string(spec.Key)}
	if spec.Description != "" {
		meta["description"] = spec.Description
	}
	portals := make([]map[string]any, 0, len(spec.Portals))
	for _, p := range spec.Portals {
		pm := map[string]any{"id": p.ID}
		if !p.Destination.IsEmpty() {
			pm["destination"] = map[string]any{
				"partition": string(p.Destination.Partition),
				"id":        p.Destination.ID,
			}
		}
		portals = append(portals, pm)
	}
	meta["portals"] = portals

	front, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal partition %s: %w", spec.Key, err)
	}

	doc := core.Document{
		ID:      string(spec.Key) + ".md",
		Content: "---\n" + string(front) + "---\n" + spec.Description + "\n",
	}
	if err := s.raw.Save(ctx, doc); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", spec.Key, err)
	}
	s.logger.Debug("partition saved", "partition", spec.Key, "portals", len(spec.Portals))
	return nil
}

// Watch implements ports.Watchable. It emits the normalized key of each changed partition.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- string(domain.NormalizeKey(evt.ID)):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
