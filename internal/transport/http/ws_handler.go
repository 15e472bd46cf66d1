package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/history"
	"trivia-session-service/internal/trivia"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per connection over a JSON envelope
// protocol.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
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

type startPayload struct {
	Amount     int    `json:"amount"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type timePayload struct {
	Seconds int `json:"seconds"`
}

type historyPayload struct {
	Records      []domain.HistoryRecord `json:"records"`
	Summary      history.Summary        `json:"summary"`
	Achievements []history.Achievement  `json:"achievements"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and wires it into the session use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Offering a resume creates the session, so subscribe afterwards.
	snap, offered := h.service.OfferResume(r.Context(), user)

	updates, cancel, err := h.service.Subscribe(user)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if offered {
		send <- outboundMessage[any]{Type: "resumeOffer", Payload: snap}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(r, user, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, user string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}}
			return
		}
		if _, err := h.service.StartQuiz(r.Context(), user, trivia.Request{
			Amount:     payload.Amount,
			Category:   payload.Category,
			Difficulty: payload.Difficulty,
		}); err != nil && !errors.Is(err, context.Canceled) {
			// Superseded by a newer start; the replacing fetch owns the state.
			fail(err)
		}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
			return
		}
		_, record, err := h.service.Answer(r.Context(), user, payload.Answer)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: record}

	case "next":
		if _, err := h.service.Next(user); err != nil {
			fail(err)
		}

	case "restart":
		if _, err := h.service.Restart(r.Context(), user); err != nil {
			fail(err)
		}

	case "clear":
		if _, err := h.service.Clear(r.Context(), user); err != nil {
			fail(err)
		}

	case "resumeAccept":
		if _, err := h.service.AcceptResume(r.Context(), user); err != nil {
			fail(err)
		}

	case "resumeDecline":
		if err := h.service.DeclineResume(r.Context(), user); err != nil {
			fail(err)
		}

	case "addTime":
		var payload timePayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		if _, err := h.service.AddTime(user, payload.Seconds); err != nil {
			fail(err)
		}

	case "subtractTime":
		var payload timePayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		if _, err := h.service.SubtractTime(user, payload.Seconds); err != nil {
			fail(err)
		}

	case "history":
		records, summary, achievements := h.service.History(r.Context(), user)
		send <- outboundMessage[any]{Type: "history", Payload: historyPayload{
			Records:      records,
			Summary:      summary,
			Achievements: achievements,
		}}

	case "leaderboard":
		top, err := h.service.Leaderboard(r.Context(), 10)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "leaderboard", Payload: top}

	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
