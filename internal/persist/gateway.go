// Package persist is the persistence gateway: it reads and writes the whole
// collection list as one document in a kv.Store.
package persist

import (
	"context"
	"io"
	"log"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/kv"
)

// Gateway loads and saves the collection document.
type Gateway struct {
	store  kv.Store
	logger *log.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for load failures.
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a Gateway over store.
func New(store kv.Store, opts ...Option) *Gateway {
	g := &Gateway{store: store, logger: log.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Discard is a logger that drops everything, for tests.
var Discard = log.New(io.Discard, "", 0)

// Load returns the stored list. It never fails: a missing key, a read
// error and a malformed document all yield an empty list.
func (g *Gateway) Load(ctx context.Context) []collection.Collection {
	data, found, err := g.store.Get(ctx, collection.DocumentKey)
	if err != nil {
		g.logger.Printf("[persist] load failed, starting empty: %v", err)
		return []collection.Collection{}
	}
	if !found {
		return []collection.Collection{}
	}
	list, err := collection.DecodeDocument(data)
	if err != nil {
		g.logger.Printf("[persist] stored document rejected, starting empty: %v", err)
		return []collection.Collection{}
	}
	return list
}

// Save replaces the stored document with list.
func (g *Gateway) Save(ctx context.Context, list []collection.Collection) error {
	data, err := collection.EncodeDocument(list)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := g.store.Put(ctx, collection.DocumentKey, data); err != nil {
		g.logger.Printf("[persist] save failed: %v", err)
		return errors.NewPersistenceFailed(err)
	}
	return nil
}

// Close closes the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}
