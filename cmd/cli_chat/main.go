package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"support-bot/internal/config"
	"support-bot/internal/domain"
	"support-bot/internal/llm"
	"support-bot/internal/repository"
	"support-bot/internal/service"
)

// REPL de prueba contra el orquestador real, con stores en memoria y el
// backend LLM configurado por entorno. Util para probar escalamiento y
// matching sin levantar el servidor.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	faqRepo := repository.NewMemoryFaqRepository()
	seedFaqs(ctx, faqRepo)

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		time.Duration(cfg.LLMTimeoutMS)*time.Millisecond,
		logger,
	)

	chatSvc := service.NewChatService(
		logger,
		repository.NewMemorySessionRepository(),
		service.NewKnowledgeMatcher(faqRepo),
		llmClient,
		service.NewPhraseClassifier(),
	)

	fmt.Println("support-bot chat (type /quit to exit, /session for state)")

	token := ""
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/session":
			printSession(ctx, chatSvc, token)
			continue
		}

		result, err := chatSvc.HandleMessage(ctx, token, line)
		if err != nil {
			printError(err)
			continue
		}
		token = result.SessionToken

		fmt.Printf("bot: %s\n", result.Reply)
		if result.Escalated {
			fmt.Printf("[session escalated, status=%s]\n", result.Status)
		}
	}
}

func printSession(ctx context.Context, chatSvc *service.ChatService, token string) {
	if token == "" {
		fmt.Println("no session yet")
		return
	}
	session, err := chatSvc.GetSession(ctx, token)
	if err != nil {
		printError(err)
		return
	}
	fmt.Printf("token=%s status=%s turns=%d\n", session.Token, session.Status, len(session.Messages))
	if session.EscalationNote != "" {
		fmt.Printf("escalation note: %s\n", session.EscalationNote)
	}
}

func printError(err error) {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		fmt.Println("error: the model timed out")
	case errors.Is(err, llm.ErrUnauthorized):
		fmt.Println("error: check LLM_API_KEY")
	default:
		fmt.Printf("error: %v\n", err)
	}
}

func seedFaqs(ctx context.Context, repo *repository.MemoryFaqRepository) {
	now := time.Now().UTC()
	seeds := []domain.Faq{
		{
			ID:       "seed-refund",
			Question: "How do I request a refund?",
			Answer:   "Refunds are processed within 5 business days from your orders page.",
			Tags:     []string{"refund", "billing"},
		},
		{
			ID:       "seed-shipping",
			Question: "How long does shipping take?",
			Answer:   "Standard shipping takes 3-7 business days.",
			Tags:     []string{"shipping", "delivery"},
		},
	}
	for _, faq := range seeds {
		faq.Category = "general"
		faq.Published = true
		faq.Version = 1
		faq.CreatedAt = now
		faq.UpdatedAt = now
		_ = repo.Create(ctx, faq)
	}
}
