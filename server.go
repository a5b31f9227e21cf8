package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"regionquad/quadtree"
	"regionquad/render"
)

const (
	pingInterval = 2 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type rectJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type lineJSON struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type leafJSON struct {
	Bounds rectJSON    `json:"bounds"`
	Points []pointJSON `json:"points"`
	Hits   []pointJSON `json:"hits"`
}

// TreeResponse is the JSON body of /api/tree
type TreeResponse struct {
	World     rectJSON    `json:"world"`
	Line      lineJSON    `json:"line"`
	Bounds    []rectJSON  `json:"bounds"`
	Positions []pointJSON `json:"positions"`
	Leaves    []leafJSON  `json:"leaves"`
	Count     int         `json:"count"`
	Depth     int         `json:"depth"`
	Rejected  int         `json:"rejected,omitempty"`
	Seed      int64       `json:"seed"`
}

// ClientMessage represents incoming websocket messages
type ClientMessage struct {
	Type string  `json:"type"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Seed int64   `json:"seed,omitempty"`
}

// ServerMessage represents outgoing websocket messages
type ServerMessage struct {
	Type   string     `json:"type"`
	ID     string     `json:"id,omitempty"`
	World  *rectJSON  `json:"world,omitempty"`
	Leaves []leafJSON `json:"leaves,omitempty"`
	Count  int        `json:"count"`
	Seed   int64      `json:"seed,omitempty"`
	Error  string     `json:"error,omitempty"`
	Time   int64      `json:"time"`
}

func toPoint(p quadtree.Point) pointJSON { return pointJSON{X: p.X, Y: p.Y} }

func toRect(r quadtree.Rect) rectJSON {
	return rectJSON{X: r.Origin.X, Y: r.Origin.Y, W: r.Size.X, H: r.Size.Y}
}

func toLine(l quadtree.Line) lineJSON {
	return lineJSON{X1: l.Origin.X, Y1: l.Origin.Y, X2: l.End.X, Y2: l.End.Y}
}

func toPoints(pts []quadtree.Point) []pointJSON {
	out := make([]pointJSON, 0, len(pts))
	for _, p := range pts {
		out = append(out, toPoint(p))
	}
	return out
}

func toLeaves(leaves []Leaf) []leafJSON {
	out := make([]leafJSON, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, leafJSON{Bounds: toRect(l.Bounds), Points: toPoints(l.Points), Hits: toPoints(l.Hits)})
	}
	return out
}

// WebSocketClient represents a connected client
type WebSocketClient struct {
	conn *websocket.Conn
	id   string
	// Mutex to prevent concurrent writes
	mu sync.Mutex
}

func (c *WebSocketClient) send(msg ServerMessage) error {
	msg.Time = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *WebSocketClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Server serves casts against the scene over HTTP and websocket.
type Server struct {
	scene *Scene
	cfg   Config

	clients   map[string]*WebSocketClient
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
}

func NewServer(scene *Scene, cfg Config) *Server {
	return &Server{
		scene:   scene,
		cfg:     cfg,
		clients: make(map[string]*WebSocketClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}
}

// Handler registers the API, websocket and static routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tree", s.TreeHandler)
	mux.HandleFunc("/render.png", s.RenderHandler)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

// parseLine reads x1, y1, x2, y2 from the query. Missing values keep the
// default line's coordinate; NaN and infinities are rejected.
func parseLine(q url.Values, def quadtree.Line) (quadtree.Line, error) {
	l := def
	fields := []struct {
		key string
		dst *float64
	}{
		{"x1", &l.Origin.X}, {"y1", &l.Origin.Y}, {"x2", &l.End.X}, {"y2", &l.End.Y},
	}
	for _, f := range fields {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return quadtree.Line{}, fmt.Errorf("invalid %s %q: %w", f.key, v, err)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return quadtree.Line{}, fmt.Errorf("invalid %s %q: not a finite number", f.key, v)
		}
		*f.dst = val
	}
	return l, nil
}

// TreeHandler handles API requests for a cast
func (s *Server) TreeHandler(w http.ResponseWriter, r *http.Request) {
	l, err := parseLine(r.URL.Query(), s.cfg.DefaultLine())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.scene.Cast(l)

	bounds := make([]rectJSON, 0, len(res.Bounds))
	for _, b := range res.Bounds {
		bounds = append(bounds, toRect(b))
	}
	response := TreeResponse{
		World:     toRect(s.cfg.World()),
		Line:      toLine(res.Line),
		Bounds:    bounds,
		Positions: toPoints(res.Positions),
		Leaves:    toLeaves(res.Leaves),
		Count:     len(res.Leaves),
		Depth:     res.Depth,
		Rejected:  res.Rejected,
		Seed:      s.scene.Seed(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow CORS
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding tree response: %v", err)
	}
}

// RenderHandler draws a cast as a PNG
func (s *Server) RenderHandler(w http.ResponseWriter, r *http.Request) {
	l, err := parseLine(r.URL.Query(), s.cfg.DefaultLine())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.scene.Cast(l)

	scene := render.Scene{
		World:  s.cfg.World(),
		Bounds: res.Bounds,
		Points: res.Positions,
		Line:   &res.Line,
		Label:  fmt.Sprintf("points: %d  leaves: %d  crossed: %d", len(res.Positions), len(res.Bounds), len(res.Leaves)),
	}
	for _, leaf := range res.Leaves {
		scene.Hits = append(scene.Hits, leaf.Bounds)
		scene.Marks = append(scene.Marks, leaf.Hits...)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.EncodePNG(w, render.Render(scene, render.DefaultOptions())); err != nil {
		log.Printf("Error writing render: %v", err)
	}
}

// HandleWebSocket handles WebSocket connections
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	client := &WebSocketClient{conn: conn, id: uuid.NewString()}

	s.clientsMu.Lock()
	s.clients[client.id] = client
	s.clientsMu.Unlock()
	log.Printf("New WebSocket client connected: %s", client.id)

	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, client.id)
		s.clientsMu.Unlock()
		log.Printf("WebSocket client disconnected: %s", client.id)
	}()

	world := toRect(s.cfg.World())
	if err := client.send(ServerMessage{Type: "welcome", ID: client.id, World: &world, Count: s.scene.Len(), Seed: s.scene.Seed()}); err != nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	go s.keepAlive(client, done)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error from %s: %v", client.id, err)
			}
			return
		}
		if err := s.handleMessage(client, msg); err != nil {
			log.Printf("Error sending to client %s: %v", client.id, err)
			return
		}
	}
}

func (s *Server) keepAlive(c *WebSocketClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(c *WebSocketClient, msg ClientMessage) error {
	switch msg.Type {
	case "cast":
		res := s.scene.Cast(quadtree.NewLine(msg.X1, msg.Y1, msg.X2, msg.Y2))
		return c.send(ServerMessage{Type: "leaves", Leaves: toLeaves(res.Leaves), Count: len(res.Leaves)})
	case "reseed":
		seed := s.scene.Reseed(msg.Seed)
		log.Printf("Client %s reseeded scene with %d", c.id, seed)
		s.Broadcast(ServerMessage{Type: "scene", Count: s.scene.Len(), Seed: seed})
		return nil
	default:
		return c.send(ServerMessage{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// Broadcast sends msg to every connected client
func (s *Server) Broadcast(msg ServerMessage) {
	s.clientsMu.RLock()
	clients := make([]*WebSocketClient, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	// write outside the lock
	for _, client := range clients {
		if err := client.send(msg); err != nil {
			log.Printf("Error sending to client %s: %v", client.id, err)
		}
	}
}

func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
