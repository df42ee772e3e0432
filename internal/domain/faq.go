package domain

import "time"

// Faq es una entrada de la base de conocimiento. Solo las entradas
// publicadas y no borradas participan del matching y de la lectura publica.
type Faq struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tags      []string  `json:"tags"`
	Category  string    `json:"category"`
	Published bool      `json:"published"`
	Deleted   bool      `json:"-"`
	Version   int       `json:"version"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FaqHistory guarda el snapshot previo a cada edicion de una Faq.
// El historial es append-only y sirve de pista de auditoria.
type FaqHistory struct {
	ID        string    `json:"id"`
	FaqID     string    `json:"faq_id"`
	Snapshot  Faq       `json:"snapshot"`
	ChangedBy string    `json:"changed_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
