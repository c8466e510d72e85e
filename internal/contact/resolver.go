// Package contact resolves user identifiers against the identity partitions.
package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

// Directory is the identity-partition access the resolver needs from the
// document store.
type Directory interface {
	Contact(ctx context.Context, p store.Partition, id string) (model.Contact, error)
}

// Resolver looks up contacts across the talent, recruiter and coach
// partitions. There is no unified identity index: resolution is a linear
// probe over the three collections in a fixed order, so its cost is bounded
// by a constant regardless of user population.
type Resolver struct {
	dir    Directory
	logger *logger.Logger
}

// NewResolver creates a resolver over the given directory.
func NewResolver(dir Directory, log *logger.Logger) *Resolver {
	return &Resolver{dir: dir, logger: log}
}

// Resolve probes talent, then recruiter, then coach, and returns the first
// match. It returns store.ErrNotFound when no partition holds the id.
func (r *Resolver) Resolve(ctx context.Context, id string) (model.Contact, error) {
	for _, p := range store.Partitions {
		c, err := r.dir.Contact(ctx, p, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return model.Contact{}, fmt.Errorf("probe %s: %w", p, err)
		}
	}
	return model.Contact{}, fmt.Errorf("contact %s: %w", id, store.ErrNotFound)
}

// Pass returns a view that memoizes resolutions, so the same counterparty is
// probed at most once within one aggregation pass.
func (r *Resolver) Pass() *Pass {
	return &Pass{resolver: r, seen: make(map[string]passEntry)}
}

type passEntry struct {
	contact model.Contact
	ok      bool
}

// Pass is a best-effort, memoizing resolution view for a single conversation
// build. Misses and store failures both degrade to "not resolved"; failures
// are logged, never surfaced.
type Pass struct {
	resolver *Resolver

	mu   sync.Mutex
	seen map[string]passEntry
}

// Resolve returns the contact for id and whether resolution succeeded.
func (p *Pass) Resolve(ctx context.Context, id string) (model.Contact, bool) {
	p.mu.Lock()
	entry, cached := p.seen[id]
	p.mu.Unlock()
	if cached {
		return entry.contact, entry.ok
	}

	c, err := p.resolver.Resolve(ctx, id)
	ok := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		p.resolver.logger.Warn("contact resolution failed",
			zap.String("contact_id", id),
			zap.Error(err),
		)
	}

	p.mu.Lock()
	p.seen[id] = passEntry{contact: c, ok: ok}
	p.mu.Unlock()
	return c, ok
}
