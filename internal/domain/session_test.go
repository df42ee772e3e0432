package domain

import "testing"

func TestSessionCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"active to escalated", SessionStatusActive, SessionStatusEscalated, true},
		{"active to closed", SessionStatusActive, SessionStatusClosed, true},
		{"escalated to closed", SessionStatusEscalated, SessionStatusClosed, true},
		{"escalated to active is never allowed", SessionStatusEscalated, SessionStatusActive, false},
		{"escalated to escalated", SessionStatusEscalated, SessionStatusEscalated, false},
		{"closed to escalated", SessionStatusClosed, SessionStatusEscalated, false},
		{"closed to closed", SessionStatusClosed, SessionStatusClosed, false},
		{"closed to active", SessionStatusClosed, SessionStatusActive, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := Session{Status: c.from}
			if got := s.CanTransition(c.to); got != c.allowed {
				t.Fatalf("transition %s -> %s: expected %v, got %v", c.from, c.to, c.allowed, got)
			}
		})
	}
}

func TestSessionLastAssistantIndex(t *testing.T) {
	s := Session{Messages: []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "more"},
		{Role: RoleAssistant, Content: "sure"},
		{Role: RoleUser, Content: "thanks"},
	}}
	if idx := s.LastAssistantIndex(); idx != 3 {
		t.Fatalf("expected index 3, got %d", idx)
	}

	empty := Session{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	if idx := empty.LastAssistantIndex(); idx != -1 {
		t.Fatalf("expected -1 without assistant turns, got %d", idx)
	}
}
