package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"tg-relay-bot/internal/integrations/telegram"
)

const (
	secretHeader      = "X-Telegram-Bot-Api-Secret-Token"
	correlationHeader = "X-Correlation-Id"
)

// UpdateRouter is implemented by *bot.Router.
type UpdateRouter interface {
	Route(ctx context.Context, u telegram.Update)
}

// UpdateClaimer is implemented by *repository.Client.
type UpdateClaimer interface {
	ClaimUpdate(ctx context.Context, updateID int64, chatID int64) (bool, error)
}

type Handler struct {
	router UpdateRouter
	claims UpdateClaimer
	secret string
	logger *slog.Logger
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the webhook handler. claims may be nil to disable
// duplicate detection; an empty secret disables the secret-token check.
func NewHandler(router UpdateRouter, claims UpdateClaimer, secret string, logger *slog.Logger) (*Handler, error) {
	if router == nil {
		return nil, errors.New("handler: router must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		router: router,
		claims: claims,
		secret: strings.TrimSpace(secret),
		logger: logger,
	}, nil
}

// Handle receives one Telegram webhook call through API Gateway. Accepted and
// ignored updates both answer 200 so Telegram does not redeliver them.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.logger.With("correlation_id", correlationID)

	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: "METHOD_NOT_ALLOWED"}), nil
	}
	if h.secret != "" {
		got := header(req.Headers, secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			log.Warn("rejected webhook call with bad secret token")
			return respond(http.StatusUnauthorized, correlationID, errorResponse{Error: "UNAUTHORIZED"}), nil
		}
	}

	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return respond(http.StatusBadRequest, correlationID, errorResponse{Error: "INVALID_BODY"}), nil
		}
		body = string(raw)
	}

	var update telegram.Update
	if err := json.Unmarshal([]byte(body), &update); err != nil {
		log.Warn("invalid webhook body", "err", err)
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: "INVALID_BODY"}), nil
	}
	log = log.With("update_id", update.UpdateID)

	if h.claims != nil {
		var chatID int64
		if update.Message != nil && update.Message.Chat != nil {
			chatID = update.Message.Chat.ID
		}
		claimed, err := h.claims.ClaimUpdate(ctx, update.UpdateID, chatID)
		switch {
		case err != nil:
			// Answering twice beats not answering.
			log.Warn("update claim failed, handling anyway", "err", err)
		case !claimed:
			log.Info("skipping duplicate update")
			return respond(http.StatusOK, correlationID, statusResponse{Status: "duplicate"}), nil
		}
	}

	h.router.Route(ctx, update)
	return respond(http.StatusOK, correlationID, statusResponse{Status: "ok"}), nil
}

func respond(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(b),
	}
}

// header looks up name case-insensitively; API Gateway preserves client casing.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
