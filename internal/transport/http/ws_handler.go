package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"solo-quiz-service/internal/app"
	"solo-quiz-service/internal/domain"
)

// WSHandler exposes the quiz use cases to a presentation shell over a
// websocket. State snapshots are pushed after every transition, including
// countdown ticks, so shells render without polling.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

var errInvalidPayload = errors.New("invalid payload")

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Key        string `json:"key"`
}

type questionRef struct {
	ID int `json:"id"`
}

type typePayload struct {
	Type string `json:"type"`
}

type timerPayload struct {
	Seconds int `json:"seconds"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context())
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
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, send, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, send chan<- outboundMessage[any], inbound inboundMessage) {
	ctx := r.Context()
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "start":
		if err := h.service.Start(ctx); err != nil {
			fail(err)
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		if err := h.service.SelectAnswer(ctx, payload.QuestionID, payload.Key); err != nil {
			fail(err)
		}
	case "next":
		if err := h.service.Next(ctx); err != nil {
			fail(err)
		}
	case "previous":
		if err := h.service.Previous(ctx); err != nil {
			fail(err)
		}
	case "finish":
		if err := h.service.Finish(ctx); err != nil {
			fail(err)
		}
	case "home":
		if err := h.service.Home(ctx); err != nil {
			fail(err)
		}
	case "suspend":
		if err := h.service.Suspend(ctx); err != nil {
			fail(err)
		}
	case "bank":
		questions, err := h.service.Questions(ctx)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "bank", Payload: questions}
	case "question":
		var payload questionRef
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		question, err := h.service.QuestionByID(ctx, payload.ID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "question", Payload: question}
	case "newDraft":
		send <- outboundMessage[any]{Type: "draft", Payload: h.service.StartDraft()}
	case "editQuestion":
		var payload questionRef
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		draft, err := h.service.EditQuestion(ctx, payload.ID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "draft", Payload: draft}
	case "setDraftType":
		var payload typePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || !domain.ValidType(payload.Type) {
			fail(errInvalidPayload)
			return
		}
		draft, err := h.service.SetDraftType(domain.QuestionType(payload.Type))
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "draft", Payload: draft}
	case "updateDraft":
		var draft app.Draft
		if err := json.Unmarshal(inbound.Payload, &draft); err != nil {
			fail(errInvalidPayload)
			return
		}
		send <- outboundMessage[any]{Type: "draft", Payload: h.service.UpdateDraft(draft)}
	case "saveDraft":
		questions, err := h.service.SaveDraft(ctx)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "bank", Payload: questions}
	case "cancelDraft":
		h.service.CancelDraft()
	case "deleteQuestion":
		var payload questionRef
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		questions, err := h.service.DeleteQuestion(ctx, payload.ID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "bank", Payload: questions}
	case "setTimer":
		var payload timerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errInvalidPayload)
			return
		}
		if err := h.service.SetTimer(ctx, payload.Seconds); err != nil {
			fail(err)
		}
	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
