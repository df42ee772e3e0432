package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message es un turno del contexto enviado al modelo.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client define la interfaz hacia el backend del modelo. Un intento por
// llamada; no hay reintentos dentro del gateway.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Fallos distinguibles del backend. El orquestador reacciona distinto segun
// el tipo, asi que los callers deben poder discriminarlos con errors.Is.
var (
	ErrTimeout       = errors.New("llm request timeout")
	ErrUnauthorized  = errors.New("llm unauthorized")
	ErrQuotaExceeded = errors.New("llm quota exceeded")
	ErrInvalidModel  = errors.New("llm invalid model")
	ErrUpstream      = errors.New("llm upstream error")
)

// HTTPClient implementa Client contra una API OpenAI-compatible
// (POST {base}/chat/completions). El timeout se aplica via cancelacion de
// contexto para que la llamada en vuelo libere sus recursos al expirar.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un gateway con su configuracion inyectada.
// No hay cliente global de proceso: cada instancia lleva endpoint,
// credencial, modelo y presupuesto de timeout propios.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *HTTPClient) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		return "", c.statusError(resp.StatusCode, respBody)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrUpstream, err)
	}
	if cr.Error != nil {
		return "", c.apiError(cr.Error)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return cr.Choices[0].Message.Content, nil
}

// statusError mapea el codigo HTTP del backend a un fallo tipado.
func (c *HTTPClient) statusError(status int, body []byte) error {
	var cr chatResponse
	apiMessage := ""
	apiCode := ""
	if err := json.Unmarshal(body, &cr); err == nil && cr.Error != nil {
		apiMessage = cr.Error.Message
		apiCode = cr.Error.Code
	}
	c.logger.Warn("llm error response",
		zap.Int("status", status),
		zap.String("code", apiCode),
		zap.String("model", c.model),
	)
	switch {
	case status == http.StatusUnauthorized || apiCode == "invalid_api_key":
		return fmt.Errorf("%w: status=%d", ErrUnauthorized, status)
	case status == http.StatusTooManyRequests || apiCode == "insufficient_quota":
		return fmt.Errorf("%w: status=%d", ErrQuotaExceeded, status)
	case apiCode == "model_not_found" || strings.Contains(strings.ToLower(apiMessage), "model"):
		return fmt.Errorf("%w: %s", ErrInvalidModel, c.model)
	default:
		return fmt.Errorf("%w: status=%d", ErrUpstream, status)
	}
}

func (c *HTTPClient) apiError(apiErr *apiError) error {
	switch apiErr.Code {
	case "invalid_api_key":
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	case "insufficient_quota":
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
	case "model_not_found":
		return fmt.Errorf("%w: %s", ErrInvalidModel, c.model)
	default:
		return fmt.Errorf("%w: %s", ErrUpstream, apiErr.Message)
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}
