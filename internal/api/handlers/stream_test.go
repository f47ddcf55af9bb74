package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/indicators"
	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/models"
)

func dialStream(t *testing.T, h *StreamHandler) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", h.Stream)
	srv := httptest.NewServer(router)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestStreamHandler_Stream(t *testing.T) {
	collector := metrics.NewMetricsCollector(nil, "stream-test")
	h := NewStreamHandler(newService(nil), collector, nil, nil, 0)
	conn, closeAll := dialStream(t, h)
	defer closeAll()

	require.NoError(t, conn.WriteJSON(models.StreamRequest{
		ID:        "a",
		Indicator: "sma",
		IndicatorRequest: models.IndicatorRequest{
			Table:   closeTable(2, 4, 6, 8),
			Request: indicators.Request{Params: indicators.Params{Period: 2}},
		},
	}))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp models.StreamResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "a", resp.ID)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.Series, 1)
	assert.InDelta(t, 7.0, resp.Result.Series[0].Float(3), 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StreamClients))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp = models.StreamResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "invalid request")

	require.NoError(t, conn.WriteJSON(models.StreamRequest{
		ID:               "b",
		Indicator:        "unknown",
		IndicatorRequest: models.IndicatorRequest{Table: closeTable(1)},
	}))
	resp = models.StreamResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "b", resp.ID)
	assert.Contains(t, resp.Error, "unknown")
	assert.Nil(t, resp.Result)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(collector.StreamClients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandler_RejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", NewStreamHandler(newService(nil), nil, nil, []string{"https://app.example.com"}, 0).Stream)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)

	header["Origin"] = []string{"https://app.example.com"}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestStreamHandler_EmptyOriginListIsSameOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", NewStreamHandler(newService(nil), nil, nil, nil, 0).Stream)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)

	header["Origin"] = []string{srv.URL}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()

	conn, _, err = websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = conn.Close()
}
