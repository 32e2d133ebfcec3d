package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/getdukka/chatseller-api-sub001/internal/convo"
	"github.com/getdukka/chatseller-api-sub001/internal/engine"
	"github.com/getdukka/chatseller-api-sub001/internal/order"
	"github.com/getdukka/chatseller-api-sub001/internal/shop"
)

// maxMessageRunes bounds inbound messages; anything longer is not a
// chat message.
const maxMessageRunes = 2000

// TurnHandler is engine.Engine's surface, split out so tests can
// substitute a fake.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req engine.TurnRequest) (*engine.TurnResponse, error)
}

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	ShopID         uuid.UUID `json:"shopId"`
	ConversationID uuid.UUID `json:"conversationId,omitempty"`
	VisitorID      string    `json:"visitorId,omitempty"`
	Message        string    `json:"message"`
}

// ChatResponse is the reply the widget renders.
type ChatResponse struct {
	ConversationID uuid.UUID    `json:"conversationId"`
	Reply          string       `json:"reply"`
	Artifact       any          `json:"artifact,omitempty"`
	OrderState     *order.State `json:"orderState,omitempty"`
}

// ChatHandler serves one shopper turn per request.
type ChatHandler struct {
	engine TurnHandler
	logger *slog.Logger
}

// NewChatHandler creates the chat endpoint. logger may be nil.
func NewChatHandler(e TurnHandler, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{engine: e, logger: logger}
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if req.ShopID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "missing_shop", "shopId is required")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if len([]rune(message)) > maxMessageRunes {
		writeError(w, http.StatusBadRequest, "message_too_long", "message exceeds the allowed length")
		return
	}

	resp, err := h.engine.HandleTurn(r.Context(), engine.TurnRequest{
		ShopID:         req.ShopID,
		ConversationID: req.ConversationID,
		VisitorID:      req.VisitorID,
		Message:        message,
	})
	if err != nil {
		h.writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: resp.ConversationID,
		Reply:          resp.Reply,
		Artifact:       resp.Artifact,
		OrderState:     resp.OrderState,
	})
}

func (h *ChatHandler) writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shop.ErrNotFound):
		writeError(w, http.StatusNotFound, "shop_not_found", "unknown shop")
	case errors.Is(err, convo.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation_not_found", "unknown conversation")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "the turn took too long")
	default:
		h.logger.Error("turn failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "turn_failed", "could not process the message")
	}
}
