package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Operator message types
const (
	MsgResponseSubmitted MessageType = "response_submitted"
	MsgSurveyStatus      MessageType = "survey_status"
	MsgSurveyDeleted     MessageType = "survey_deleted"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans results events out to the operators watching each survey
type Hub struct {
	// surveyID -> watching connections
	watchers map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	quit       chan struct{}

	log *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SurveyID  string
	AccountID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 16),
		quit:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.SurveyID] == nil {
				h.watchers[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.watchers[conn.SurveyID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("operator watching survey",
				zap.String("surveyId", conn.SurveyID), zap.String("accountId", conn.AccountID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.SurveyID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.watchers, conn.SurveyID)
					}
				}
			}
			h.mu.Unlock()

		case surveyID := <-h.disconnect:
			h.mu.Lock()
			payload, _ := json.Marshal(map[string]string{"surveyId": surveyID})
			data, _ := json.Marshal(&Message{Type: MsgSurveyDeleted, Payload: payload})
			for conn := range h.watchers[surveyID] {
				select {
				case conn.Send <- data:
				default:
				}
				close(conn.Send)
			}
			delete(h.watchers, surveyID)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.watchers[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for surveyID, conns := range h.watchers {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.watchers, surveyID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Watchers returns how many connections watch a survey
func (h *Hub) Watchers(surveyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[surveyID])
}

// BroadcastToSurvey sends a message to every operator watching a survey (implements service.Broadcaster)
func (h *Hub) BroadcastToSurvey(surveyID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSurvey closes every connection watching a survey (implements service.Broadcaster)
func (h *Hub) DisconnectSurvey(surveyID string) {
	h.disconnect <- surveyID
}

// Shutdown stops the hub and closes every connection
func (h *Hub) Shutdown() {
	close(h.quit)
}
