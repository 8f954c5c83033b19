package twin

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when no twin has the requested slug.
	ErrNotFound = errors.New("twin: not found")

	// ErrSlugTaken is returned by Create when the slug is already in use.
	ErrSlugTaken = errors.New("twin: slug already in use")
)

// Store persists twins keyed by slug.
type Store interface {
	// Create stores a new twin. It returns ErrSlugTaken when the slug exists.
	Create(ctx context.Context, t *Twin) error

	// Get returns the twin with the given slug or ErrNotFound.
	Get(ctx context.Context, slug string) (*Twin, error)

	// Exists reports whether a twin with the slug exists.
	Exists(ctx context.Context, slug string) (bool, error)

	// Delete removes a twin. Deleting a missing slug is not an error.
	Delete(ctx context.Context, slug string) error

	// List iterates over twins in slug order.
	List(ctx context.Context) iter.Seq2[*Twin, error]

	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	twins map[string]*Twin
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{twins: make(map[string]*Twin)}
}

func (m *Memory) Create(_ context.Context, t *Twin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.twins[t.Slug]; ok {
		return ErrSlugTaken
	}
	cp := *t
	cp.Profile.DoNotSay = slices.Clone(t.Profile.DoNotSay)
	m.twins[t.Slug] = &cp
	return nil
}

func (m *Memory) Get(_ context.Context, slug string) (*Twin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.twins[slug]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	cp.Profile.DoNotSay = slices.Clone(t.Profile.DoNotSay)
	return &cp, nil
}

func (m *Memory) Exists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.twins[slug]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.twins, slug)
	return nil
}

func (m *Memory) List(ctx context.Context) iter.Seq2[*Twin, error] {
	return func(yield func(*Twin, error) bool) {
		m.mu.RLock()
		slugs := make([]string, 0, len(m.twins))
		for s := range m.twins {
			slugs = append(slugs, s)
		}
		m.mu.RUnlock()
		slices.SortFunc(slugs, strings.Compare)
		for _, s := range slugs {
			t, err := m.Get(ctx, s)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if !yield(t, err) {
				return
			}
		}
	}
}

func (m *Memory) Close() error {
	return nil
}
