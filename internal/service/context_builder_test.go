package service

import (
	"fmt"
	"strings"
	"testing"

	"support-bot/internal/domain"
)

func TestBuildContextOrderAndWindow(t *testing.T) {
	var log []domain.Message
	for i := 1; i <= 10; i++ {
		role := domain.RoleUser
		if i%2 == 0 {
			role = domain.RoleAssistant
		}
		log = append(log, domain.Message{Role: role, Content: fmt.Sprintf("turn-%d", i)})
	}
	faqs := []domain.Faq{{Question: "Refund?", Answer: "Orders page."}}

	messages := BuildContext(log, faqs, "current question")

	// preambulo + conocimiento + 6 turnos + mensaje actual
	if len(messages) != 9 {
		t.Fatalf("expected 9 context messages, got %d", len(messages))
	}
	if messages[0].Role != domain.RoleSystem || !strings.Contains(messages[0].Content, "customer support bot") {
		t.Fatalf("expected system preamble first, got %+v", messages[0])
	}
	if messages[1].Role != domain.RoleSystem || !strings.Contains(messages[1].Content, "Q: Refund?") {
		t.Fatalf("expected knowledge block second, got %+v", messages[1])
	}
	for i := 0; i < recentWindow; i++ {
		expected := fmt.Sprintf("turn-%d", 5+i)
		if messages[2+i].Content != expected {
			t.Fatalf("turn %d: expected %q, got %q", i, expected, messages[2+i].Content)
		}
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser || last.Content != "current question" {
		t.Fatalf("expected current user message last, got %+v", last)
	}
}

func TestBuildContextShortLog(t *testing.T) {
	log := []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
	}
	messages := BuildContext(log, nil, "hello")
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[1].Content != "No relevant FAQs found." {
		t.Fatalf("expected empty-knowledge marker, got %q", messages[1].Content)
	}
}

func TestBuildContextDeterministic(t *testing.T) {
	log := []domain.Message{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
	}
	faqs := []domain.Faq{{Question: "Q", Answer: "A"}}

	first := BuildContext(log, faqs, "q2")
	second := BuildContext(log, faqs, "q2")
	if len(first) != len(second) {
		t.Fatalf("expected identical output, got lengths %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("message %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildContextCapsKnowledge(t *testing.T) {
	faqs := []domain.Faq{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
		{Question: "q4", Answer: "a4"},
	}
	messages := BuildContext(nil, faqs, "question")
	if strings.Contains(messages[1].Content, "q4") {
		t.Fatalf("expected knowledge block capped at %d entries: %q", knowledgeLimit, messages[1].Content)
	}
	if !strings.Contains(messages[1].Content, "q3") {
		t.Fatalf("expected third entry present: %q", messages[1].Content)
	}
}
