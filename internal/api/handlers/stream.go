package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/celebrum-ta-go/internal/metrics"
	"github.com/irfndi/celebrum-ta-go/internal/models"
	"github.com/irfndi/celebrum-ta-go/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler answers indicator requests over a WebSocket. Each text
// frame carries one StreamRequest and is answered by one StreamResponse
// with the same id, in order.
type StreamHandler struct {
	svc       *services.AnalysisService
	collector *metrics.MetricsCollector
	logger    *logrus.Logger
	upgrader  websocket.Upgrader
	readLimit int64
}

// NewStreamHandler accepts connections from allowedOrigins, or from any
// origin when the list holds "*". An empty list falls back to the
// upgrader's same-origin check. Requests without an Origin header are
// always accepted.
func NewStreamHandler(svc *services.AnalysisService, collector *metrics.MetricsCollector, logger *logrus.Logger, allowedOrigins []string, readLimit int64) *StreamHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if readLimit <= 0 {
		readLimit = 10 << 20
	}
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	if len(allowedOrigins) > 0 {
		origins := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			origins[o] = true
		}
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origins["*"] || origin == "" || origins[origin]
		}
	}
	return &StreamHandler{
		svc:       svc,
		collector: collector,
		logger:    logger,
		readLimit: readLimit,
		upgrader:  upgrader,
	}
}

type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *streamConn) write(msgType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(msgType, data)
}

func (s *streamConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

// Stream upgrades the request and serves frames until the peer leaves.
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	sc := &streamConn{conn: conn}
	if h.collector != nil {
		h.collector.StreamClients.Inc()
		defer h.collector.StreamClients.Dec()
	}

	ctx := c.Request.Context()
	done := make(chan struct{})
	defer func() {
		close(done)
		_ = conn.Close()
	}()

	conn.SetReadLimit(h.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sc.write(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("WebSocket closed unexpectedly")
			}
			return
		}

		var req models.StreamRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if sc.writeJSON(models.StreamResponse{Error: "invalid request: " + err.Error()}) != nil {
				return
			}
			continue
		}

		resp := models.StreamResponse{ID: req.ID}
		result, err := h.svc.Compute(ctx, req.Table, req.Indicator, req.Request)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = result
		}
		if err := sc.writeJSON(resp); err != nil {
			return
		}
	}
}
