package service

import (
	"fmt"
	"strings"

	"support-bot/internal/domain"
	"support-bot/internal/llm"
)

// EscalationClassifier decide si una respuesta del modelo amerita pasar la
// sesion a un agente humano. Es una estrategia intercambiable: el orquestador
// solo depende de este contrato.
type EscalationClassifier interface {
	Classify(replyText string) bool
}

// PhraseClassifier dispara cuando la respuesta, en minusculas, contiene
// alguna frase del set. Contencion exacta de substrings, case-insensitive;
// el primer match corta la busqueda. No es NLP.
type PhraseClassifier struct {
	phrases []string
}

func NewPhraseClassifier() *PhraseClassifier {
	return &PhraseClassifier{
		phrases: []string{
			"escalate",
			"human agent",
			"support representative",
			"cannot help",
			"can't help",
		},
	}
}

func (c *PhraseClassifier) Classify(replyText string) bool {
	lower := strings.ToLower(replyText)
	for _, phrase := range c.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

const escalationSummaryInstruction = "You are creating an escalation note for a human support agent. " +
	"Summarise the issue, what has been tried, and the user's sentiment."

// BuildSummaryContext arma el contexto para la nota de escalamiento con el
// log COMPLETO de la sesion, sin ventana de recencia.
func BuildSummaryContext(log []domain.Message) []llm.Message {
	var sb strings.Builder
	for _, m := range log {
		sb.WriteString(fmt.Sprintf("%s: %s\n", strings.ToUpper(m.Role), m.Content))
	}
	return []llm.Message{
		{Role: domain.RoleSystem, Content: escalationSummaryInstruction},
		{Role: domain.RoleUser, Content: strings.TrimRight(sb.String(), "\n")},
	}
}
