package domain

import "time"

// Estados posibles de una sesion de soporte.
const (
	SessionStatusActive    = "active"
	SessionStatusEscalated = "escalated"
	SessionStatusClosed    = "closed"
)

// Session representa un hilo de conversacion de soporte identificado por un token opaco.
// Las sesiones nunca se borran fisicamente; solo cambian de estado.
type Session struct {
	Token            string    `json:"token"`
	UserID           string    `json:"user_id,omitempty"`
	Status           string    `json:"status"`
	Messages         []Message `json:"messages"`
	LastUserQuestion string    `json:"last_user_question,omitempty"`
	EscalationNote   string    `json:"escalation_note,omitempty"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanTransition indica si el cambio de estado es valido.
// Transiciones permitidas: active -> escalated, active|escalated -> closed.
// Nunca se vuelve de escalated a active.
func (s *Session) CanTransition(next string) bool {
	switch next {
	case SessionStatusEscalated:
		return s.Status == SessionStatusActive
	case SessionStatusClosed:
		return s.Status == SessionStatusActive || s.Status == SessionStatusEscalated
	default:
		return false
	}
}

// LastAssistantIndex devuelve el indice del ultimo turno del asistente, o -1 si no hay.
func (s *Session) LastAssistantIndex() int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}
