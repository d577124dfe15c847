package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"surveyhub/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// SurveyOwner resolves a survey for its owner
type SurveyOwner interface {
	GetOwned(ctx context.Context, ownerID, id string) (*model.Survey, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	surveys  SurveyOwner
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates a new WebSocket handler. An empty origins list allows
// every origin.
func NewHandler(hub *Hub, surveys SurveyOwner, origins []string, log *zap.Logger) *Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub:     hub,
		surveys: surveys,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		log: log,
	}
}

// ResultsWS handles GET /v1/ws/surveys/{id}/results
func (h *Handler) ResultsWS(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["id"]

	// browsers cannot set headers on the upgrade request
	accountID := r.Header.Get("X-Account-ID")
	if accountID == "" {
		accountID = r.URL.Query().Get("account")
	}
	if accountID == "" {
		http.Error(w, "missing account", http.StatusUnauthorized)
		return
	}

	if _, err := h.surveys.GetOwned(r.Context(), accountID, surveyID); err != nil {
		if errors.Is(err, model.ErrSurveyNotFound) {
			http.Error(w, "survey not found", http.StatusNotFound)
			return
		}
		h.log.Error("results ws lookup failed", zap.String("surveyId", surveyID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SurveyID:  surveyID,
		AccountID: accountID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// results watchers are receive-only
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket closed", zap.String("surveyId", conn.SurveyID), zap.Error(err))
			}
			break
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
