package domain

import "time"

// Roles validos de un turno.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Origen del contenido de un turno del asistente.
const (
	SourceFAQ        = "faq"
	SourceLLM        = "llm"
	SourceEscalation = "escalation"
)

// Valores de feedback sobre un turno del asistente.
const (
	FeedbackUp   = "up"
	FeedbackDown = "down"
)

// MessageMeta guarda metadatos opcionales de un turno.
type MessageMeta struct {
	Source    string `json:"source,omitempty"`
	Escalated bool   `json:"escalated,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
}

// Message es un turno dentro del log de una sesion. Los turnos solo se
// agregan al final; la unica mutacion permitida es adjuntar feedback al
// ultimo turno del asistente.
type Message struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Meta      *MessageMeta `json:"meta,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
