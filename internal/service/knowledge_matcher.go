package service

import (
	"context"
	"fmt"
	"strings"

	"support-bot/internal/domain"
	"support-bot/internal/repository"
)

// Largo minimo (exclusivo) de un token para participar del matching.
// Filtra articulos y conectores sin mantener una lista de stop words.
const minTokenLength = 3

// KnowledgeMatcher busca entradas publicadas que contengan alguno de los
// tokens de la consulta. Es un filtro lexico deliberadamente simple, no un
// ranking de relevancia: los empates quedan en el orden del almacen, que es
// implementation-defined.
type KnowledgeMatcher struct {
	faqs repository.FaqRepository
}

func NewKnowledgeMatcher(faqs repository.FaqRepository) *KnowledgeMatcher {
	return &KnowledgeMatcher{faqs: faqs}
}

// Find devuelve hasta limit entradas publicadas que matcheen la consulta.
// Lista vacia (no error) cuando ningun token sobrevive el filtro o nada
// matchea.
func (m *KnowledgeMatcher) Find(ctx context.Context, query string, limit int) ([]domain.Faq, error) {
	if limit <= 0 {
		limit = 3
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []domain.Faq{}, nil
	}

	published, err := m.faqs.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published faqs: %w", err)
	}

	matched := make([]domain.Faq, 0, limit)
	for _, faq := range published {
		if faqMatches(faq, tokens) {
			matched = append(matched, faq)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

// tokenize separa por espacios, pasa a minusculas y descarta tokens cortos.
func tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if len(field) > minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func faqMatches(faq domain.Faq, tokens []string) bool {
	question := strings.ToLower(faq.Question)
	answer := strings.ToLower(faq.Answer)
	for _, token := range tokens {
		if strings.Contains(question, token) || strings.Contains(answer, token) {
			return true
		}
		for _, tag := range faq.Tags {
			if strings.Contains(strings.ToLower(tag), token) {
				return true
			}
		}
	}
	return false
}
