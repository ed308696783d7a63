package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "BrentCast/internal/domain/models"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub("/ws/training", time.Second, 4, nil)
	h.OnTrainingEvent(models.TrainingEvent{Stage: models.StageLoad, Status: "started"})

	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/training"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got models.TrainingEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, models.StageLoad, got.Stage)

	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	h.OnTrainingEvent(models.TrainingEvent{Stage: models.StageDone, Status: "completed", ModelID: "m1"})
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "m1", got.ModelID)

	h.Close()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, h.Clients())
}
