package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/ziadkadry99/lexsearch/internal/storage"
)

// RegistryKey is the storage key of the index registry.
const RegistryKey = "index_registry.json"

// Registry maps index names to descriptors and persists the whole map on
// every change.
type Registry struct {
	mu      sync.RWMutex
	storage storage.Storage
	entries map[string]IndexDescriptor
}

// LoadRegistry reads the registry from st. A missing registry is empty.
func LoadRegistry(ctx context.Context, st storage.Storage) (*Registry, error) {
	r := &Registry{storage: st, entries: make(map[string]IndexDescriptor)}

	data, err := storage.ReadAll(ctx, st, RegistryKey)
	if errors.Is(err, storage.ErrNotFound) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.entries); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if r.entries == nil {
		r.entries = make(map[string]IndexDescriptor)
	}
	return r, nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (IndexDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	return d, ok
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []IndexDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IndexDescriptor, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register adds or replaces desc and rewrites the registry. The in-memory
// map only changes once the write succeeds.
func (r *Registry) Register(ctx context.Context, desc IndexDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := maps.Clone(r.entries)
	next[desc.Name] = desc

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := r.storage.Put(ctx, RegistryKey, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	r.entries = next
	return nil
}
