package service

import (
	"fmt"
	"strings"

	"support-bot/internal/domain"
	"support-bot/internal/llm"
)

// Ventana de recencia: se envian al modelo solo los ultimos recentWindow
// turnos del log. Lo anterior se descarta, no se resume.
const recentWindow = 6

// Cantidad maxima de entradas de conocimiento incluidas en el contexto.
const knowledgeLimit = 3

const supportPreamble = `You are an AI customer support bot for ACME Corp.
Use the FAQs when relevant. If you are not confident, say you will escalate.
Always be concise and friendly.`

// BuildContext arma el contexto acotado para el modelo: preambulo fijo,
// bloque de conocimiento, ultimos turnos y el mensaje actual del usuario,
// siempre en ese orden. Funcion pura: sin I/O y determinista.
func BuildContext(log []domain.Message, faqs []domain.Faq, userMessage string) []llm.Message {
	if len(faqs) > knowledgeLimit {
		faqs = faqs[:knowledgeLimit]
	}
	recent := log
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	messages := make([]llm.Message, 0, len(recent)+3)
	messages = append(messages, llm.Message{Role: domain.RoleSystem, Content: supportPreamble})
	messages = append(messages, llm.Message{Role: domain.RoleSystem, Content: knowledgeBlock(faqs)})
	for _, m := range recent {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: domain.RoleUser, Content: userMessage})
	return messages
}

func knowledgeBlock(faqs []domain.Faq) string {
	if len(faqs) == 0 {
		return "No relevant FAQs found."
	}
	var sb strings.Builder
	sb.WriteString("Relevant FAQs:\n")
	for i, faq := range faqs {
		sb.WriteString(fmt.Sprintf("%d. Q: %s\n   A: %s\n", i+1, faq.Question, faq.Answer))
	}
	return strings.TrimRight(sb.String(), "\n")
}
