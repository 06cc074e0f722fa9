package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/stellarlinkco/planit/internal/bus"
	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/planner"
	"github.com/stellarlinkco/planit/internal/tools"
)

//go:embed static
var staticFiles embed.FS

const (
	webUIChannelName = "webui"

	maxRequestBody = 64 << 10
	writeTimeout   = 5 * time.Second
)

// Assistant answers the synchronous JSON API. *planner.Planner satisfies it.
type Assistant interface {
	Converse(ctx context.Context, session, message string) (string, error)
	CreatePlan(ctx context.Context, message string, existing *planner.Preferences) (*planner.Plan, error)
}

type ToolCatalog interface {
	Describe() []tools.Spec
}

// WebAPI holds the optional backends of the HTTP endpoints. Endpoints whose
// backend is nil answer 503 (or 404 for /metrics).
type WebAPI struct {
	Assistant Assistant
	Tools     ToolCatalog
	Metrics   http.Handler
	Timeout   time.Duration
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

type chatRequest struct {
	Message     string               `json:"message"`
	SessionID   string               `json:"session_id,omitempty"`
	Preferences *planner.Preferences `json:"preferences,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type toolParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

type toolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []toolParam `json:"parameters"`
}

type WebUIChannel struct {
	BaseChannel
	addr    string
	api     WebAPI
	server  *http.Server
	clients sync.Map
	nextID  atomic.Int64
}

func NewWebUIChannel(cfg config.WebUIConfig, gwCfg config.GatewayConfig, b *bus.MessageBus, api WebAPI) (*WebUIChannel, error) {
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	return &WebUIChannel{
		BaseChannel: NewBaseChannel(webUIChannelName, b, cfg.AllowFrom),
		addr:        net.JoinHostPort(gwCfg.Host, strconv.Itoa(port)),
		api:         api,
	}, nil
}

// Handler returns the full HTTP surface: static page, websocket chat, JSON
// API, health and metrics.
func (w *WebUIChannel) Handler() (http.Handler, error) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("embed static fs: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", w.handleWS)
	mux.HandleFunc("POST /api/chat", w.handleChat)
	mux.HandleFunc("POST /api/plan", w.handlePlan)
	mux.HandleFunc("GET /api/tools", w.handleTools)
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	})
	if w.api.Metrics != nil {
		mux.Handle("GET /metrics", w.api.Metrics)
	}
	return mux, nil
}

func (w *WebUIChannel) Start(ctx context.Context) error {
	handler, err := w.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", w.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", w.addr, err)
	}

	w.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("[webui] listening on %s", ln.Addr())
		if err := w.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[webui] server error: %v", err)
		}
	}()

	return nil
}

func (w *WebUIChannel) handleWS(wr http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(wr, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[webui] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("webui-%d", w.nextID.Add(1))
	w.clients.Store(clientID, &wsClient{conn: conn, id: clientID})
	log.Printf("[webui] client connected: %s", clientID)

	defer func() {
		w.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[webui] client disconnected: %s", clientID)
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		content := strings.TrimSpace(msg.Content)
		if msg.Type != "message" || content == "" {
			continue
		}

		if !w.IsAllowed(clientID) {
			log.Printf("[webui] rejected message from %s", clientID)
			continue
		}

		err = w.bus.PublishInbound(r.Context(), bus.InboundMessage{
			Channel:   webUIChannelName,
			SenderID:  clientID,
			ChatID:    clientID,
			Content:   content,
			Timestamp: time.Now(),
		})
		if err != nil {
			return
		}
	}
}

func (w *WebUIChannel) handleChat(rw http.ResponseWriter, r *http.Request) {
	req, ok := w.decodeRequest(rw, r)
	if !ok {
		return
	}
	ctx, cancel := w.requestContext(r)
	defer cancel()

	reply, err := w.api.Assistant.Converse(ctx, apiSession(req.SessionID), req.Message)
	if err != nil {
		log.Printf("[webui] chat error: %v", err)
		writeJSON(rw, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, chatResponse{Reply: reply})
}

// apiSession scopes client-chosen ids so they cannot collide with websocket
// or Telegram sessions. Requests without an id are stateless.
func apiSession(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "api:" + id
}

func (w *WebUIChannel) handlePlan(rw http.ResponseWriter, r *http.Request) {
	req, ok := w.decodeRequest(rw, r)
	if !ok {
		return
	}
	ctx, cancel := w.requestContext(r)
	defer cancel()

	plan, err := w.api.Assistant.CreatePlan(ctx, req.Message, req.Preferences)
	if err != nil {
		log.Printf("[webui] plan error: %v", err)
		writeJSON(rw, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, plan)
}

func (w *WebUIChannel) handleTools(rw http.ResponseWriter, _ *http.Request) {
	if w.api.Tools == nil {
		writeJSON(rw, http.StatusServiceUnavailable, errorResponse{Error: "tools unavailable"})
		return
	}
	specs := w.api.Tools.Describe()
	out := make([]toolInfo, 0, len(specs))
	for _, spec := range specs {
		info := toolInfo{Name: spec.Name, Description: spec.Description, Parameters: []toolParam{}}
		for _, p := range spec.Params {
			info.Parameters = append(info.Parameters, toolParam{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Required:    p.Required,
				Enum:        p.Enum,
			})
		}
		out = append(out, info)
	}
	writeJSON(rw, http.StatusOK, out)
}

func (w *WebUIChannel) decodeRequest(rw http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if w.api.Assistant == nil {
		writeJSON(rw, http.StatusServiceUnavailable, errorResponse{Error: "assistant unavailable"})
		return req, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return req, false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(rw, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return req, false
	}
	return req, true
}

func (w *WebUIChannel) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if w.api.Timeout > 0 {
		return context.WithTimeout(r.Context(), w.api.Timeout)
	}
	return context.WithCancel(r.Context())
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.Printf("[webui] encode response: %v", err)
	}
}

// Send writes msg to the websocket client it is addressed to. Messages without
// a chat id go to every connected client; replies for a client that has
// disconnected are dropped.
func (w *WebUIChannel) Send(msg bus.OutboundMessage) error {
	data, err := json.Marshal(wsMessage{
		Type:    "message",
		Content: msg.Content,
	})
	if err != nil {
		return err
	}

	if msg.ChatID == "" {
		w.clients.Range(func(_, value any) bool {
			_ = writeWS(value.(*wsClient), data)
			return true
		})
		return nil
	}

	client, ok := w.clients.Load(msg.ChatID)
	if !ok {
		log.Printf("[webui] client %s gone, dropping reply", msg.ChatID)
		return nil
	}
	return writeWS(client.(*wsClient), data)
}

func writeWS(c *wsClient, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (w *WebUIChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			log.Printf("[webui] shutdown error: %v", err)
		}
	}
	w.clients.Range(func(_, value any) bool {
		value.(*wsClient).conn.CloseNow()
		return true
	})
	log.Printf("[webui] stopped")
	return nil
}
