// Package server exposes the upgrade recipe index over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/farrelathalla/anvil-upgrades/item"
	"github.com/farrelathalla/anvil-upgrades/recipes"
)

// SearchRequest represents a lookup request sent over the WebSocket
type SearchRequest struct {
	RequestID string `json:"requestId,omitempty"` // echoed on every update; generated if empty
	Item      string `json:"item"`
	Mode      string `json:"mode"` // "input", "output" or "all"
}

// ConnectionManager tracks open WebSocket connections
type ConnectionManager struct {
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func newConnectionManager() *ConnectionManager {
	return &ConnectionManager{connections: make(map[*websocket.Conn]bool)}
}

func (m *ConnectionManager) Add(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connections[conn] = true
}

func (m *ConnectionManager) Remove(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.connections, conn)
}

// Count returns the number of open connections.
func (m *ConnectionManager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.connections)
}

// CloseAll closes every tracked connection. Hijacked connections are not
// closed by http.Server.Shutdown.
func (m *ConnectionManager) CloseAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for conn := range m.connections {
		_ = conn.Close()
	}
}

// Options configures a Server.
type Options struct {
	StaticDir       string
	ShutdownTimeout time.Duration
}

// Server serves lookups against the registry's current index.
type Server struct {
	registry *recipes.Registry
	logger   *zap.Logger
	manager  *ConnectionManager
	upgrader websocket.Upgrader
	opts     Options
}

// New creates a Server.
func New(registry *recipes.Registry, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		registry: registry,
		logger:   logger,
		manager:  newConnectionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // viewers are served from other origins
			},
		},
		opts: opts,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/recipes", s.recipesHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.StaticDir)))
	}
	return mux
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		s.logger.Info("Server shutting down", zap.Int("websockets", s.manager.Count()))
		s.manager.CloseAll()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// lookup resolves a mode and optional item against the current index.
func (s *Server) lookup(mode, itemText string) ([]recipes.Group, error) {
	idx := s.registry.Load()
	if mode == "" || mode == "all" {
		return idx.AllGroups(), nil
	}
	m, err := recipes.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	id, err := item.Parse(itemText)
	if err != nil {
		return nil, err
	}
	return idx.Lookup(recipes.Focus{Mode: m, Item: id}), nil
}

func payloads(groups []recipes.Group) []recipes.GroupPayload {
	out := make([]recipes.GroupPayload, 0, len(groups))
	for _, g := range groups {
		if g.Empty() {
			continue
		}
		out = append(out, recipes.GroupPayload{Group: g, Entry: recipes.NewAnvilEntry(g)})
	}
	return out
}

// recipesHandler answers GET /recipes[?input=<item>|?output=<item>]
func (s *Server) recipesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	input, output := q.Get("input"), q.Get("output")
	var mode, itemText string
	switch {
	case input != "" && output != "":
		http.Error(w, "use either input or output, not both", http.StatusBadRequest)
		return
	case input != "":
		mode, itemText = "input", input
	case output != "":
		mode, itemText = "output", output
	}

	groups, err := s.lookup(mode, itemText)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := json.Marshal(payloads(groups))
	if err != nil {
		s.logger.Error("Failed to encode recipes", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// requestQueueSize bounds the lookups buffered per connection before the
// read loop stops accepting more.
const requestQueueSize = 8

// wsHandler streams lookup results for each request read from the socket.
// Lookups on one connection run one at a time so their updates never
// interleave; each update echoes the request id.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	s.manager.Add(conn)
	defer s.manager.Remove(conn)

	session := uuid.NewString()
	log := s.logger.With(zap.String("session", session))
	client := recipes.NewWebSocketClient(conn)

	ctx, cancel := context.WithCancel(context.Background())
	requests := make(chan SearchRequest, requestQueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for req := range requests {
			s.processSearch(ctx, client, req, log)
		}
	}()
	defer func() {
		cancel()
		close(requests)
		wg.Wait()
	}()

	for {
		var req SearchRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		log.Info("Received lookup via WebSocket", zap.String("request", req.RequestID), zap.String("item", req.Item), zap.String("mode", req.Mode))
		requests <- req
	}
}

// requestSender stamps every update with the id of the request it answers.
type requestSender struct {
	client *recipes.WebSocketClient
	id     string
}

func (r requestSender) SendUpdate(update recipes.ProcessUpdate) error {
	update.RequestID = r.id
	return r.client.SendUpdate(update)
}

func (s *Server) processSearch(ctx context.Context, client *recipes.WebSocketClient, req SearchRequest, log *zap.Logger) {
	sender := requestSender{client: client, id: req.RequestID}
	log = log.With(zap.String("request", req.RequestID))

	groups, err := s.lookup(strings.ToLower(req.Mode), req.Item)
	if err != nil {
		if sendErr := sender.SendUpdate(recipes.ErrorUpdate(err.Error())); sendErr != nil {
			log.Debug("Error sending error message", zap.Error(sendErr))
		}
		return
	}

	stats, err := recipes.StreamGroups(ctx, sender, groups)
	if err != nil {
		log.Debug("Stream interrupted", zap.Error(err))
		return
	}
	log.Info("Lookup streamed", zap.Int("groups", stats.GroupCount), zap.Int("paths", stats.PathCount), zap.Duration("elapsed", stats.ElapsedTime))
}
