package service

import (
	"context"
	"testing"
	"time"

	"support-bot/internal/domain"
	"support-bot/internal/repository"
)

func seedFaqRepo(t *testing.T, faqs ...domain.Faq) *repository.MemoryFaqRepository {
	t.Helper()
	repo := repository.NewMemoryFaqRepository()
	now := time.Now().UTC()
	for i := range faqs {
		if faqs[i].CreatedAt.IsZero() {
			faqs[i].CreatedAt = now
			faqs[i].UpdatedAt = now
		}
		if err := repo.Create(context.Background(), faqs[i]); err != nil {
			t.Fatalf("seed faq: %v", err)
		}
	}
	return repo
}

func TestKnowledgeMatcherFind(t *testing.T) {
	repo := seedFaqRepo(t,
		domain.Faq{ID: "f1", Question: "How do I request a refund?", Answer: "Use the orders page.", Tags: []string{"refund"}, Published: true},
		domain.Faq{ID: "f2", Question: "Shipping times", Answer: "3-7 business days.", Tags: []string{"shipping"}, Published: true},
		domain.Faq{ID: "f3", Question: "Secret refund backdoor", Answer: "internal only", Tags: []string{"refund"}, Published: false},
	)
	matcher := NewKnowledgeMatcher(repo)

	t.Run("matches published entry by token", func(t *testing.T) {
		found, err := matcher.Find(context.Background(), "refund policy", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 1 || found[0].ID != "f1" {
			t.Fatalf("expected only published refund entry, got %+v", found)
		}
	})

	t.Run("matches by tag", func(t *testing.T) {
		found, err := matcher.Find(context.Background(), "when does shipping arrive", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 1 || found[0].ID != "f2" {
			t.Fatalf("expected shipping entry, got %+v", found)
		}
	})

	t.Run("empty query returns empty list", func(t *testing.T) {
		found, err := matcher.Find(context.Background(), "", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 0 {
			t.Fatalf("expected empty result, got %+v", found)
		}
	})

	t.Run("short tokens are discarded", func(t *testing.T) {
		found, err := matcher.Find(context.Background(), "the a an", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 0 {
			t.Fatalf("expected empty result for short tokens, got %+v", found)
		}
	})

	t.Run("no match returns empty list not error", func(t *testing.T) {
		found, err := matcher.Find(context.Background(), "completely unrelated topic", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 0 {
			t.Fatalf("expected empty result, got %+v", found)
		}
	})
}

func TestKnowledgeMatcherLimit(t *testing.T) {
	repo := seedFaqRepo(t,
		domain.Faq{ID: "f1", Question: "billing question one", Answer: "a", Published: true},
		domain.Faq{ID: "f2", Question: "billing question two", Answer: "b", Published: true},
		domain.Faq{ID: "f3", Question: "billing question three", Answer: "c", Published: true},
		domain.Faq{ID: "f4", Question: "billing question four", Answer: "d", Published: true},
	)
	matcher := NewKnowledgeMatcher(repo)

	found, err := matcher.Find(context.Background(), "billing", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected result capped at 3, got %d", len(found))
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("  The REFUND Policy and FAQ  ")
	if len(tokens) != 2 || tokens[0] != "refund" || tokens[1] != "policy" {
		t.Fatalf("expected [refund policy], got %v", tokens)
	}
}
