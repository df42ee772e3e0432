package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"support-bot/internal/domain"
)

// Implementaciones en memoria de los repositorios, para correr sin base de
// datos y como sustrato de tests. Respetan la misma semantica que las
// implementaciones Pg, incluido el chequeo optimista de version en Save.

type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *MemorySessionRepository) GetByToken(_ context.Context, token string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return cloneSession(session), nil
}

func (r *MemorySessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) Save(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.Token]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != session.Version {
		return ErrVersionConflict
	}
	session.Version++
	r.sessions[session.Token] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) List(_ context.Context, status string, limit, offset int) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []domain.Session
	for _, s := range r.sessions {
		if status != "" && s.Status != status {
			continue
		}
		sessions = append(sessions, cloneSession(s))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if offset >= len(sessions) {
		return nil, nil
	}
	sessions = sessions[offset:]
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func cloneSession(s domain.Session) domain.Session {
	out := s
	out.Messages = make([]domain.Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m
		if m.Meta != nil {
			meta := *m.Meta
			out.Messages[i].Meta = &meta
		}
	}
	return out
}

type MemoryFaqRepository struct {
	mu      sync.Mutex
	faqs    map[string]domain.Faq
	order   []string
	history map[string][]domain.FaqHistory
}

func NewMemoryFaqRepository() *MemoryFaqRepository {
	return &MemoryFaqRepository{
		faqs:    make(map[string]domain.Faq),
		history: make(map[string][]domain.FaqHistory),
	}
}

func (r *MemoryFaqRepository) ListPublished(_ context.Context) ([]domain.Faq, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var faqs []domain.Faq
	for _, id := range r.order {
		faq := r.faqs[id]
		if faq.Published && !faq.Deleted {
			faqs = append(faqs, faq)
		}
	}
	return faqs, nil
}

func (r *MemoryFaqRepository) List(_ context.Context, filter FaqFilter) ([]domain.Faq, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	var matched []domain.Faq
	for _, id := range r.order {
		faq := r.faqs[id]
		if faq.Deleted {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(faq.Question), q) && !strings.Contains(strings.ToLower(faq.Answer), q) {
				continue
			}
		}
		if filter.Tag != "" && !containsTag(faq.Tags, filter.Tag) {
			continue
		}
		if filter.Category != "" && faq.Category != filter.Category {
			continue
		}
		if filter.Published != nil && faq.Published != *filter.Published {
			continue
		}
		matched = append(matched, faq)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *MemoryFaqRepository) GetByID(_ context.Context, id string) (domain.Faq, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	faq, ok := r.faqs[id]
	if !ok || faq.Deleted {
		return domain.Faq{}, ErrNotFound
	}
	return faq, nil
}

func (r *MemoryFaqRepository) Create(_ context.Context, faq domain.Faq) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.faqs[faq.ID]; !ok {
		r.order = append(r.order, faq.ID)
	}
	r.faqs[faq.ID] = faq
	return nil
}

func (r *MemoryFaqRepository) Update(_ context.Context, faq domain.Faq) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.faqs[faq.ID]; !ok {
		return ErrNotFound
	}
	r.faqs[faq.ID] = faq
	return nil
}

func (r *MemoryFaqRepository) AddHistory(_ context.Context, entry domain.FaqHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[entry.FaqID] = append(r.history[entry.FaqID], entry)
	return nil
}

func (r *MemoryFaqRepository) ListHistory(_ context.Context, faqID string, limit int) ([]domain.FaqHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.history[faqID]
	out := make([]domain.FaqHistory, len(entries))
	copy(out, entries)
	// Mas reciente primero, como la implementacion Pg.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

var (
	_ SessionRepository = (*MemorySessionRepository)(nil)
	_ FaqRepository     = (*MemoryFaqRepository)(nil)
	_ UserRepository    = (*MemoryUserRepository)(nil)
)
