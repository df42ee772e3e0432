package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-bot/internal/domain"
	"support-bot/internal/repository"
)

var (
	ErrFaqInvalidInput = errors.New("faq question and answer are required")
	ErrFaqNotFound     = errors.New("faq not found")
)

// FaqService administra la base de conocimiento: CRUD con contador de
// version, snapshots de auditoria y borrado logico.
type FaqService struct {
	logger *zap.Logger
	faqs   repository.FaqRepository
}

func NewFaqService(logger *zap.Logger, faqs repository.FaqRepository) *FaqService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FaqService{logger: logger, faqs: faqs}
}

// FaqInput son los campos editables de una entrada.
type FaqInput struct {
	Question  string
	Answer    string
	Tags      []string
	Category  string
	Published *bool
}

// ListPublished expone la superficie publica de lectura.
func (s *FaqService) ListPublished(ctx context.Context) ([]domain.Faq, error) {
	faqs, err := s.faqs.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if faqs == nil {
		faqs = []domain.Faq{}
	}
	return faqs, nil
}

func (s *FaqService) List(ctx context.Context, filter repository.FaqFilter) ([]domain.Faq, int, error) {
	return s.faqs.List(ctx, filter)
}

func (s *FaqService) Get(ctx context.Context, id string) (domain.Faq, error) {
	faq, err := s.faqs.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Faq{}, ErrFaqNotFound
	}
	return faq, err
}

func (s *FaqService) Create(ctx context.Context, input FaqInput, userID string) (domain.Faq, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	if question == "" || answer == "" {
		return domain.Faq{}, ErrFaqInvalidInput
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}
	published := true
	if input.Published != nil {
		published = *input.Published
	}

	now := time.Now().UTC()
	faq := domain.Faq{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Tags:      normalizeTags(input.Tags),
		Category:  category,
		Published: published,
		Version:   1,
		CreatedBy: userID,
		UpdatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.faqs.Create(ctx, faq); err != nil {
		return domain.Faq{}, fmt.Errorf("create faq: %w", err)
	}
	return faq, nil
}

// Update guarda el snapshot previo en el historial y publica la nueva
// version. El contador de version sube en cada edicion mutante.
func (s *FaqService) Update(ctx context.Context, id string, input FaqInput, userID string) (domain.Faq, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Faq{}, err
	}

	if err := s.snapshot(ctx, existing, userID); err != nil {
		return domain.Faq{}, err
	}

	if q := strings.TrimSpace(input.Question); q != "" {
		existing.Question = q
	}
	if a := strings.TrimSpace(input.Answer); a != "" {
		existing.Answer = a
	}
	if input.Tags != nil {
		existing.Tags = normalizeTags(input.Tags)
	}
	if c := strings.TrimSpace(input.Category); c != "" {
		existing.Category = c
	}
	if input.Published != nil {
		existing.Published = *input.Published
	}
	existing.Version++
	existing.UpdatedBy = userID
	existing.UpdatedAt = time.Now().UTC()

	if err := s.faqs.Update(ctx, existing); err != nil {
		return domain.Faq{}, fmt.Errorf("update faq: %w", err)
	}
	return existing, nil
}

// SetPublished cambia solo el flag de publicacion.
func (s *FaqService) SetPublished(ctx context.Context, id string, published bool, userID string) (domain.Faq, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Faq{}, err
	}
	existing.Published = published
	existing.UpdatedBy = userID
	existing.UpdatedAt = time.Now().UTC()
	if err := s.faqs.Update(ctx, existing); err != nil {
		return domain.Faq{}, fmt.Errorf("update faq: %w", err)
	}
	return existing, nil
}

// SoftDelete marca la entrada como borrada. Nunca se borra fisicamente,
// para preservar historial y auditoria.
func (s *FaqService) SoftDelete(ctx context.Context, id, userID string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	existing.Deleted = true
	existing.Published = false
	existing.UpdatedBy = userID
	existing.UpdatedAt = time.Now().UTC()
	if err := s.faqs.Update(ctx, existing); err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return nil
}

func (s *FaqService) History(ctx context.Context, id string, limit int) ([]domain.FaqHistory, error) {
	history, err := s.faqs.ListHistory(ctx, strings.TrimSpace(id), limit)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.FaqHistory{}
	}
	return history, nil
}

func (s *FaqService) snapshot(ctx context.Context, faq domain.Faq, userID string) error {
	entry := domain.FaqHistory{
		ID:        uuid.NewString(),
		FaqID:     faq.ID,
		Snapshot:  faq,
		ChangedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.faqs.AddHistory(ctx, entry); err != nil {
		return fmt.Errorf("snapshot faq: %w", err)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
