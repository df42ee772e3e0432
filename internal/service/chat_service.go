package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-bot/internal/domain"
	"support-bot/internal/email"
	"support-bot/internal/llm"
	"support-bot/internal/repository"
)

// Largo maximo de un mensaje entrante. Se valida antes de cualquier llamada
// externa.
const maxMessageLength = 4000

// Intentos de guardado ante conflictos de version antes de rendirse.
const saveAttempts = 3

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrEmptyMessage             = errors.New("message is required")
	ErrMessageTooLong           = errors.New("message too long")
	ErrSessionNotFound          = errors.New("session not found")
	ErrNoAssistantMessage       = errors.New("no assistant message to attach feedback to")
	ErrInvalidFeedback          = errors.New("feedback must be up or down")
	ErrInvalidTransition        = errors.New("invalid session status transition")
	ErrConflict                 = errors.New("session save conflict")
	ErrRateLimited              = errors.New("rate limited")
)

// ChatService es el orquestador de sesiones: duenio del ciclo de vida, arma
// el contexto, llama al modelo bajo timeout, clasifica el escalamiento y
// persiste la transicion resultante. Toda mutacion de sesion pasa por aca.
type ChatService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	matcher    *KnowledgeMatcher
	llmClient  llm.Client
	classifier EscalationClassifier
	notifier   email.Sender
	notifyTo   string
	limiter    RateLimiter
	locks      *sessionLocks
}

func NewChatService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	matcher *KnowledgeMatcher,
	llmClient llm.Client,
	classifier EscalationClassifier,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = NewPhraseClassifier()
	}
	return &ChatService{
		logger:     logger,
		sessions:   sessions,
		matcher:    matcher,
		llmClient:  llmClient,
		classifier: classifier,
		locks:      newSessionLocks(),
	}
}

// WithNotifier configura el envio de la nota de escalamiento a soporte.
func (s *ChatService) WithNotifier(notifier email.Sender, toEmail string) *ChatService {
	s.notifier = notifier
	s.notifyTo = toEmail
	return s
}

// WithRateLimiter configura el limite de mensajes por token de sesion.
func (s *ChatService) WithRateLimiter(limiter RateLimiter) *ChatService {
	s.limiter = limiter
	return s
}

// ChatResult es la respuesta de HandleMessage hacia la capa de transporte.
type ChatResult struct {
	SessionToken         string   `json:"session_token"`
	Reply                string   `json:"reply"`
	Escalated            bool     `json:"escalated"`
	Status               string   `json:"status"`
	SuggestedNextActions []string `json:"suggested_next_actions"`
}

// HandleMessage procesa un mensaje entrante de punta a punta. El turno del
// usuario se confirma antes de llamar al modelo: si el modelo falla, el
// mensaje del usuario no se pierde y no se agrega ningun turno del asistente.
func (s *ChatService) HandleMessage(ctx context.Context, token, text string) (ChatResult, error) {
	if s == nil || s.sessions == nil || s.matcher == nil || s.llmClient == nil {
		return ChatResult{}, ErrChatServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ChatResult{}, ErrEmptyMessage
	}
	if len(text) > maxMessageLength {
		return ChatResult{}, ErrMessageTooLong
	}

	token = strings.TrimSpace(token)
	if token == "" {
		token = uuid.NewString()
	}

	if s.limiter != nil && !s.limiter.Allow(token) {
		return ChatResult{}, ErrRateLimited
	}

	s.locks.Lock(token)
	defer s.locks.Unlock(token)

	session, err := s.getOrCreate(ctx, token)
	if err != nil {
		return ChatResult{}, err
	}

	now := time.Now().UTC()
	session, err = s.saveWithRetry(ctx, session, func(sess *domain.Session) error {
		sess.Messages = append(sess.Messages, domain.Message{
			Role:      domain.RoleUser,
			Content:   text,
			CreatedAt: now,
		})
		sess.LastUserQuestion = text
		return nil
	})
	if err != nil {
		return ChatResult{}, err
	}

	faqs, err := s.matcher.Find(ctx, text, knowledgeLimit)
	if err != nil {
		return ChatResult{}, err
	}

	reply, err := s.llmClient.Complete(ctx, BuildContext(session.Messages, faqs, text))
	if err != nil {
		// El turno del usuario ya quedo confirmado; no se agrega un turno
		// del asistente roto.
		return ChatResult{}, err
	}

	escalated, note := s.resolveEscalation(ctx, session, reply)

	assistantTurn := domain.Message{
		Role:    domain.RoleAssistant,
		Content: reply,
		Meta: &domain.MessageMeta{
			Source:    domain.SourceLLM,
			Escalated: escalated,
		},
		CreatedAt: time.Now().UTC(),
	}

	newlyEscalated := false
	session, err = s.saveWithRetry(ctx, session, func(sess *domain.Session) error {
		newlyEscalated = false
		if escalated && sess.CanTransition(domain.SessionStatusEscalated) {
			sess.Status = domain.SessionStatusEscalated
			sess.EscalationNote = note
			newlyEscalated = true
		}
		sess.Messages = append(sess.Messages, assistantTurn)
		return nil
	})
	if err != nil {
		return ChatResult{}, err
	}

	if newlyEscalated {
		s.notifyEscalation(session.Token, note)
	}

	return ChatResult{
		SessionToken:         session.Token,
		Reply:                reply,
		Escalated:            escalated,
		Status:               session.Status,
		SuggestedNextActions: suggestedActions(escalated),
	}, nil
}

// resolveEscalation corre el clasificador y, si dispara sobre una sesion
// activa, pide la nota de resumen con el log completo. Si la llamada de
// resumen falla, la respuesta primaria NO se descarta: el escalamiento queda
// sin efecto y el fallo se loguea.
func (s *ChatService) resolveEscalation(ctx context.Context, session domain.Session, reply string) (bool, string) {
	if !s.classifier.Classify(reply) {
		return false, ""
	}
	if session.Status == domain.SessionStatusEscalated {
		// Ya escalada: la nota existente es inmutable, no se genera otra.
		return true, ""
	}
	if session.Status != domain.SessionStatusActive {
		return false, ""
	}

	note, err := s.llmClient.Complete(ctx, BuildSummaryContext(session.Messages))
	if err != nil {
		s.logger.Warn("escalation summary failed, keeping primary reply",
			zap.String("session_token", session.Token),
			zap.Error(err),
		)
		return false, ""
	}
	return true, note
}

// CreateSession crea una sesion vacia con token nuevo.
func (s *ChatService) CreateSession(ctx context.Context, userID string) (domain.Session, error) {
	if s == nil || s.sessions == nil {
		return domain.Session{}, ErrChatServiceNotConfigured
	}
	now := time.Now().UTC()
	session := domain.Session{
		Token:     uuid.NewString(),
		UserID:    strings.TrimSpace(userID),
		Status:    domain.SessionStatusActive,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession devuelve la sesion por token.
func (s *ChatService) GetSession(ctx context.Context, token string) (domain.Session, error) {
	if s == nil || s.sessions == nil {
		return domain.Session{}, ErrChatServiceNotConfigured
	}
	session, err := s.sessions.GetByToken(ctx, strings.TrimSpace(token))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, err
}

// ListSessions lista sesiones para la superficie administrativa.
func (s *ChatService) ListSessions(ctx context.Context, status string, limit, offset int) ([]domain.Session, error) {
	if s == nil || s.sessions == nil {
		return nil, ErrChatServiceNotConfigured
	}
	if limit <= 0 {
		limit = 20
	}
	return s.sessions.List(ctx, status, limit, offset)
}

// AttachFeedback adjunta feedback (up|down) al ultimo turno del asistente.
func (s *ChatService) AttachFeedback(ctx context.Context, token, value string) error {
	if s == nil || s.sessions == nil {
		return ErrChatServiceNotConfigured
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if value != domain.FeedbackUp && value != domain.FeedbackDown {
		return ErrInvalidFeedback
	}
	token = strings.TrimSpace(token)

	s.locks.Lock(token)
	defer s.locks.Unlock(token)

	session, err := s.sessions.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.saveWithRetry(ctx, session, func(sess *domain.Session) error {
		idx := sess.LastAssistantIndex()
		if idx < 0 {
			return ErrNoAssistantMessage
		}
		if sess.Messages[idx].Meta == nil {
			sess.Messages[idx].Meta = &domain.MessageMeta{}
		}
		sess.Messages[idx].Meta.Feedback = value
		return nil
	})
	return err
}

// CloseSession cierra una sesion activa o escalada. Cerrada es terminal.
func (s *ChatService) CloseSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return ErrChatServiceNotConfigured
	}
	token = strings.TrimSpace(token)

	s.locks.Lock(token)
	defer s.locks.Unlock(token)

	session, err := s.sessions.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.saveWithRetry(ctx, session, func(sess *domain.Session) error {
		if !sess.CanTransition(domain.SessionStatusClosed) {
			return ErrInvalidTransition
		}
		sess.Status = domain.SessionStatusClosed
		return nil
	})
	return err
}

// getOrCreate resuelve la sesion por token y, si no existe, la crea en
// silencio reutilizando el token provisto. Politica deliberada, no un error:
// el primer mensaje de un cliente nuevo abre su sesion.
func (s *ChatService) getOrCreate(ctx context.Context, token string) (domain.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}

	now := time.Now().UTC()
	session = domain.Session{
		Token:     token,
		Status:    domain.SessionStatusActive,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// saveWithRetry aplica mutate sobre una lectura fresca y guarda con chequeo
// de version, reintentando ante ErrVersionConflict hasta saveAttempts veces.
// Devuelve la sesion tal como quedo persistida.
func (s *ChatService) saveWithRetry(ctx context.Context, session domain.Session, mutate func(*domain.Session) error) (domain.Session, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if attempt > 0 {
			fresh, err := s.sessions.GetByToken(ctx, session.Token)
			if err != nil {
				return domain.Session{}, fmt.Errorf("reread session: %w", err)
			}
			session = fresh
		}
		if err := mutate(&session); err != nil {
			return domain.Session{}, err
		}
		session.UpdatedAt = time.Now().UTC()

		err := s.sessions.Save(ctx, session)
		if err == nil {
			session.Version++
			return session, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return domain.Session{}, fmt.Errorf("save session: %w", err)
		}
	}
	return domain.Session{}, ErrConflict
}

func (s *ChatService) notifyEscalation(token, note string) {
	if s.notifier == nil || s.notifyTo == "" {
		return
	}
	// Fuera del request: el commit ya ocurrio y un fallo de notificacion no
	// debe afectar la respuesta al usuario.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.SendEscalationNote(ctx, s.notifyTo, token, note); err != nil {
			s.logger.Warn("escalation notification failed",
				zap.String("session_token", token),
				zap.Error(err),
			)
		}
	}()
}

func suggestedActions(escalated bool) []string {
	if escalated {
		return []string{
			"Wait for a human agent to respond",
			"Provide additional details if requested",
		}
	}
	return []string{
		"Ask a follow-up question",
		"Rate this answer (if UI supports rating)",
	}
}
