package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"quizbot/internal/app"
	"quizbot/internal/domain"
)

// WSHandler bridges websocket chat rooms and the quiz service: slash
// commands drive quiz setup, everything else is treated as an answer
// attempt.
type WSHandler struct {
	service    *app.QuizService
	hub        *Hub
	categories []string
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, hub *Hub, categories []string) *WSHandler {
	if len(categories) == 0 {
		categories = []string{domain.CategoryAll, "Trivia", "Verses"}
	}
	return &WSHandler{
		service:    service,
		hub:        hub,
		categories: categories,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

// ServeWS upgrades the request into a chat-room connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if chatID == "" || userID == "" || name == "" {
		http.Error(w, "missing chatId, userId, or name", http.StatusBadRequest)
		return
	}
	user := domain.User{
		ID:        userID,
		Username:  name,
		FirstName: r.URL.Query().Get("firstName"),
		LastName:  r.URL.Query().Get("lastName"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan outboundMessage, 16)}
	h.hub.join(chatID, c)
	defer h.hub.leave(chatID, c)

	go c.writePump()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != "message" {
			continue
		}
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			continue
		}
		h.handleText(r.Context(), chatID, user, payload.Text)
	}
}

func (h *WSHandler) handleText(ctx context.Context, chatID string, user domain.User, text string) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "/quiz":
		h.beginSetup(chatID)
	case strings.HasPrefix(trimmed, "/category"):
		h.selectCategory(chatID, strings.TrimSpace(strings.TrimPrefix(trimmed, "/category")))
	case strings.HasPrefix(trimmed, "/rounds"):
		h.selectRounds(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(trimmed, "/rounds")))
	case trimmed == "/leaderboard":
		if err := h.service.Leaderboard(ctx, chatID); err != nil {
			log.Printf("leaderboard for %s: %v", chatID, err)
		}
	case strings.HasPrefix(trimmed, "/"):
		// unknown command, ignore
	default:
		// Echo the guess to the room, then let the session decide.
		h.hub.broadcast(chatID, outboundMessage{
			Type:    "message",
			Payload: messagePayload{From: user.DisplayName(), Text: text},
		})
		h.service.HandleMessage(chatID, user, text)
	}
}

func (h *WSHandler) beginSetup(chatID string) {
	if err := h.service.BeginSetup(chatID); err != nil {
		if errors.Is(err, domain.ErrQuizInProgress) {
			h.hub.Send(chatID, "A quiz is already being set up or in progress. Please finish it first.")
			return
		}
		log.Printf("begin setup for %s: %v", chatID, err)
		return
	}
	h.hub.Send(chatID, fmt.Sprintf("Choose a category with /category <name>.\nAvailable: %s",
		strings.Join(h.categories, ", ")))
}

func (h *WSHandler) selectCategory(chatID, raw string) {
	category, ok := h.canonicalCategory(raw)
	if !ok {
		h.hub.Send(chatID, fmt.Sprintf("Unknown category %q. Available: %s", raw, strings.Join(h.categories, ", ")))
		return
	}
	if err := h.service.SelectCategory(chatID, category); err != nil {
		if errors.Is(err, domain.ErrNoPendingSetup) {
			h.hub.Send(chatID, "No quiz being set up. Use /quiz to start one.")
			return
		}
		log.Printf("select category for %s: %v", chatID, err)
		return
	}
	h.hub.Send(chatID, fmt.Sprintf("Category selected: %s\nNow choose the number of rounds with /rounds 1, 3, 5 or 10.", category))
}

func (h *WSHandler) selectRounds(ctx context.Context, chatID, raw string) {
	rounds, err := strconv.Atoi(raw)
	if err != nil || rounds < 1 {
		h.hub.Send(chatID, "Round count must be a positive number, e.g. /rounds 3")
		return
	}
	if err := h.service.StartQuiz(ctx, chatID, rounds); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingCategory):
			h.hub.Send(chatID, "Missing category. Please use /quiz again.")
		case errors.Is(err, domain.ErrInsufficientQuestions):
			h.hub.Send(chatID, "Not enough questions in this category!")
		default:
			log.Printf("start quiz for %s: %v", chatID, err)
			h.hub.Send(chatID, "Could not start the quiz, please try again.")
		}
	}
}

func (h *WSHandler) canonicalCategory(raw string) (string, bool) {
	for _, c := range h.categories {
		if strings.EqualFold(c, raw) {
			return c, true
		}
	}
	return "", false
}
