package websocket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminapi/internal/model"
	"adminapi/internal/websocket"
	"adminapi/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticTokens map[string]uint

func (s staticTokens) ParseToken(token string) (uint, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

func newServer(t *testing.T) (*websocket.Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(logger.Discard())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c, staticTokens{"good": 7})
	})
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestServeWs_RejectsBadTokens(t *testing.T) {
	t.Parallel()
	_, url := newServer(t)

	for _, query := range []string{"", "?token=bad"} {
		_, resp, err := gorilla.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestHub_BroadcastsChangeEvents(t *testing.T) {
	t.Parallel()
	hub, url := newServer(t)

	conn, resp, err := gorilla.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), model.ChangeEvent{
		Entity: model.EntityStore,
		Action: model.ActionDelete,
		ID:     12,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got model.ChangeEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, model.EntityStore, got.Entity)
	assert.Equal(t, model.ActionDelete, got.Action)
	assert.EqualValues(t, 12, got.ID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	// no Run loop: the queue fills and further events are dropped
	hub := websocket.NewHub(logger.Discard())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(context.Background(), model.ChangeEvent{Entity: model.EntityTour, ID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
