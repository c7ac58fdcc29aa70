package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, bus *events.EventBus[any], query string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hclog.NewNullLogger(), bus).HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscriber(t *testing.T, bus *events.EventBus[any]) {
	// the handler subscribes after the upgrade completes
	require.Eventually(t, func() bool {
		return bus.Subscribers() == 1
	}, time.Second, 5*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestStreamsSubmissionEvents(t *testing.T) {
	bus := events.NewEventBus[any]()
	conn := dial(t, bus, "")
	waitForSubscriber(t, bus)

	bus.Publish(events.StepFinished{
		SubmissionID: "s1",
		Index:        2,
		Total:        3,
		Result:       domain.StepResult{Label: "Cover image 1 (a.png)", Succeeded: true},
	})

	msg := readMessage(t, conn)
	assert.Equal(t, `"step_finished"`, string(msg["event-type"]))
	assert.Contains(t, string(msg["data"]), `"step":"Cover image 1 (a.png)"`)
}

func TestFiltersBySubmission(t *testing.T) {
	bus := events.NewEventBus[any]()
	conn := dial(t, bus, "?submission=mine")
	waitForSubscriber(t, bus)

	bus.Publish(events.SubmissionFinished{SubmissionID: "other", Status: domain.SubmissionSucceeded})
	bus.Publish(events.SubmissionFinished{SubmissionID: "mine", Status: domain.SubmissionPartial})

	msg := readMessage(t, conn)
	assert.Equal(t, `"submission_finished"`, string(msg["event-type"]))
	assert.Contains(t, string(msg["data"]), `"submission_id":"mine"`)
}
