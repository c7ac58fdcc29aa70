package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/events"
)

const writeWait = 10 * time.Second

type Handler struct {
	Upgrader websocket.Upgrader
	Log      hclog.Logger
	EventBus *events.EventBus[any]
}

type Message struct {
	EventType string      `json:"event-type"`
	Data      interface{} `json:"data"`
}

func NewHandler(log hclog.Logger, eventBus *events.EventBus[any]) *Handler {
	return &Handler{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the session token, not the Origin header
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		Log:      log,
		EventBus: eventBus,
	}
}

// HandleWebSocket streams submission progress to the client. The optional
// submission query parameter limits the stream to one submission.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("submission")

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Error("Unable to upgrade to WebSocket", "error", err)
		return
	}
	defer conn.Close()

	subscriber := h.EventBus.Subscribe()
	defer h.EventBus.Unsubscribe(subscriber)

	done := make(chan struct{})
	go h.readPump(conn, done)

	for {
		select {
		case event, ok := <-subscriber:
			if !ok {
				h.Log.Info("Event bus closed, ending WebSocket stream")
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}

			message, id, known := toMessage(event)
			if !known {
				h.Log.Warn("Unknown event type", "event", event)
				continue
			}
			if filter != "" && id != filter {
				continue
			}

			payload, err := json.Marshal(message)
			if err != nil {
				h.Log.Error("Error marshalling message", "error", err)
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.Log.Error("Error writing message to WebSocket", "error", err)
				return
			}
		case <-done:
			h.Log.Info("WebSocket connection closed by the client")
			return
		}
	}
}

// toMessage wraps a bus event for the wire and returns its submission ID
func toMessage(event any) (Message, string, bool) {
	switch e := event.(type) {
	case events.StepStarted:
		return Message{EventType: "step_started", Data: e}, e.SubmissionID, true
	case events.StepFinished:
		return Message{EventType: "step_finished", Data: e}, e.SubmissionID, true
	case events.SubmissionFinished:
		return Message{EventType: "submission_finished", Data: e}, e.SubmissionID, true
	}
	return Message{}, "", false
}

func (h *Handler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Error("Error reading message", "error", err)
			}
			break
		}
	}
}
