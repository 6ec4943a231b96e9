package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/internal/models"
)

func TestHubDeliversEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()

	// the client may not be registered yet when the first event goes out
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(2 * time.Second)
	for {
		hub.Publish(models.Event{Type: models.EventLevelUp, UserID: 3, Payload: models.LevelUp{From: 1, To: 2}})
		select {
		case msg := <-received:
			var got struct {
				Type   string         `json:"type"`
				UserID int            `json:"user_id"`
				Level  models.LevelUp `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(msg, &got))
			assert.Equal(t, models.EventLevelUp, got.Type)
			assert.Equal(t, 3, got.UserID)
			assert.Equal(t, 2, got.Level.To)
			return
		case <-timeout:
			t.Fatal("no event received")
		case <-ticker.C:
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for range sendBuffer * 2 {
			hub.Publish(models.Event{Type: models.EventRankUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}
