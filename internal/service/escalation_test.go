package service

import (
	"strings"
	"testing"

	"support-bot/internal/domain"
)

func TestPhraseClassifier(t *testing.T) {
	classifier := NewPhraseClassifier()

	cases := []struct {
		name     string
		reply    string
		expected bool
	}{
		{"plain answer", "Your refund will arrive in 5 days.", false},
		{"escalate keyword", "I will escalate this to the team.", true},
		{"human agent phrase", "Please contact a HUMAN AGENT for this.", true},
		{"support representative", "A support representative will reach out.", true},
		{"cannot help", "I cannot help with that request.", true},
		{"cant help contraction", "Sorry, I can't help here.", true},
		{"full escalation reply", "I'm sorry, I cannot help with that, please contact a human agent", true},
		{"keyword inside word still matches", "de-escalated situations", true},
		{"empty reply", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifier.Classify(c.reply); got != c.expected {
				t.Fatalf("Classify(%q): expected %v, got %v", c.reply, c.expected, got)
			}
		})
	}
}

func TestBuildSummaryContextUsesFullLog(t *testing.T) {
	var log []domain.Message
	for i := 0; i < 10; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		log = append(log, domain.Message{Role: role, Content: "turn-" + string(rune('a'+i))})
	}

	messages := BuildSummaryContext(log)
	if len(messages) != 2 {
		t.Fatalf("expected system instruction plus transcript, got %d messages", len(messages))
	}
	if messages[0].Role != domain.RoleSystem || !strings.Contains(messages[0].Content, "escalation note") {
		t.Fatalf("expected summary instruction, got %+v", messages[0])
	}
	// Sin ventana: el primer turno tiene que estar.
	if !strings.Contains(messages[1].Content, "USER: turn-a") {
		t.Fatalf("expected oldest turn in transcript, got %q", messages[1].Content)
	}
	if !strings.Contains(messages[1].Content, "ASSISTANT: turn-b") {
		t.Fatalf("expected role upper-cased in transcript, got %q", messages[1].Content)
	}
	if strings.Count(messages[1].Content, "turn-") != 10 {
		t.Fatalf("expected all 10 turns, got %q", messages[1].Content)
	}
}
