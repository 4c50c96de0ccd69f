package recipes

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ProcessUpdate is one message streamed to a viewer.
type ProcessUpdate struct {
	RequestID string      `json:"requestId,omitempty"` // Request this update answers
	Type      string      `json:"type"`                // "progress", "result" or "error"
	Element   string      `json:"element"`             // Upgrade item of the group being sent
	Path      interface{} `json:"path"`                // Group payload, or error details
	Complete  bool        `json:"complete"`            // Is this the final message?
	Stats     StreamStats `json:"stats"`
}

// StreamStats summarises what was sent so far.
type StreamStats struct {
	GroupCount    int           `json:"groupCount"`
	PathCount     int           `json:"pathCount"`
	ElapsedTime   time.Duration `json:"elapsedTime"`
	ElapsedTimeMs int64         `json:"elapsedTimeMs"` // For JSON serialization
}

// GroupPayload is the body of a progress update.
type GroupPayload struct {
	Group
	Entry AnvilEntry `json:"entry"`
}

// Sender receives updates. *WebSocketClient is the production Sender.
type Sender interface {
	SendUpdate(update ProcessUpdate) error
}

// WebSocketClient wraps a WebSocket connection with thread-safe methods
type WebSocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWebSocketClient wraps conn.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// SendUpdate sends an update to the client
func (c *WebSocketClient) SendUpdate(update ProcessUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(update)
}

// ErrorUpdate builds the final message reporting a failed request.
func ErrorUpdate(message string) ProcessUpdate {
	return ProcessUpdate{
		Type:     "error",
		Path:     map[string]string{"error": message},
		Complete: true,
	}
}

// StreamGroups sends one progress update per non-empty group followed by a
// final result update. It stops early if ctx is cancelled or a send fails.
func StreamGroups(ctx context.Context, s Sender, groups []Group) (StreamStats, error) {
	start := time.Now()
	var stats StreamStats

	stamp := func() {
		stats.ElapsedTime = time.Since(start)
		stats.ElapsedTimeMs = stats.ElapsedTime.Milliseconds()
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if g.Empty() {
			continue
		}
		stats.GroupCount++
		stats.PathCount += len(g.Paths)
		stamp()

		update := ProcessUpdate{
			Type:    "progress",
			Element: g.Key.String(),
			Path:    GroupPayload{Group: g, Entry: NewAnvilEntry(g)},
			Stats:   stats,
		}
		if err := s.SendUpdate(update); err != nil {
			return stats, err
		}
	}

	stamp()
	final := ProcessUpdate{
		Type:     "result",
		Path:     map[string]int{"groups": stats.GroupCount, "paths": stats.PathCount},
		Complete: true,
		Stats:    stats,
	}
	return stats, s.SendUpdate(final)
}
