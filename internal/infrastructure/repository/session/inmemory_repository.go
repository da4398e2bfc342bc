package session

import (
	"context"
	"sort"
	"sync"

	domain "github.com/janhq/sessions-api/internal/domain/session"
)

// InMemoryRepository is a thread-safe repository with serial ids, useful for
// local runs and tests.
type InMemoryRepository struct {
	domain.SerialIDParser

	mu      sync.RWMutex
	entries []domain.Session // sorted by website_index
	nextID  int64
}

var (
	_ domain.Repository = (*InMemoryRepository)(nil)
	_ domain.Seeder     = (*InMemoryRepository)(nil)
)

// NewInMemoryRepository creates a repository holding the given sessions.
func NewInMemoryRepository(seed ...domain.Session) *InMemoryRepository {
	r := &InMemoryRepository{}
	r.load(seed)
	return r
}

// ReplaceAll drops every record and inserts sessions with fresh serial ids.
func (r *InMemoryRepository) ReplaceAll(ctx context.Context, sessions []domain.Session) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(sessions)
	return len(sessions), nil
}

func (r *InMemoryRepository) load(sessions []domain.Session) {
	r.entries = make([]domain.Session, 0, len(sessions))
	r.nextID = 0
	for _, s := range sessions {
		r.nextID++
		s.ID = domain.SerialID(r.nextID)
		s.People = domain.CopyPeople(s.People)
		r.entries = append(r.entries, s)
	}
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].WebsiteIndex < r.entries[j].WebsiteIndex
	})
}

// List filters, counts and pages in website_index order.
func (r *InMemoryRepository) List(ctx context.Context, params domain.ListParams) ([]domain.Session, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Session, 0)
	for _, s := range r.entries {
		if params.Matches(s) {
			matched = append(matched, s)
		}
	}

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return []domain.Session{}, total, nil
	}
	end := min(start+params.Limit, len(matched))

	page := make([]domain.Session, 0, end-start)
	for _, s := range matched[start:end] {
		page = append(page, clone(s))
	}
	return page, total, nil
}

// FindOne returns the addressed session.
func (r *InMemoryRepository) FindOne(ctx context.Context, id domain.Identifier) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	return clone(r.entries[idx]), nil
}

// UpdateTranscript sets the transcript under the write lock.
func (r *InMemoryRepository) UpdateTranscript(ctx context.Context, id domain.Identifier, transcript string) (domain.Session, error) {
	return r.update(ctx, id, func(s *domain.Session) {
		s.Transcript = transcript
	})
}

// UpdatePeople replaces the people list under the write lock.
func (r *InMemoryRepository) UpdatePeople(ctx context.Context, id domain.Identifier, people []domain.Person) (domain.Session, error) {
	return r.update(ctx, id, func(s *domain.Session) {
		s.People = domain.CopyPeople(people)
	})
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *InMemoryRepository) update(ctx context.Context, id domain.Identifier, apply func(*domain.Session)) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	apply(&r.entries[idx])
	return clone(r.entries[idx]), nil
}

// indexOf must be called with the lock held.
func (r *InMemoryRepository) indexOf(id domain.Identifier) int {
	for i, s := range r.entries {
		if id.Matches(s) {
			return i
		}
	}
	return -1
}

func clone(s domain.Session) domain.Session {
	s.People = domain.CopyPeople(s.People)
	return s
}
