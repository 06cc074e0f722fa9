package gateway

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/stellarlinkco/planit/internal/bus"
	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/cron"
	"github.com/stellarlinkco/planit/internal/llm"
	"github.com/stellarlinkco/planit/internal/llm/llmtest"
)

// testConfig returns an offline configuration rooted in a temporary HOME.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.DefaultConfig()
	cfg.Agent.Workspace = filepath.Join(home, "workspace")
	cfg.Knowledge.DBPath = ":memory:"
	cfg.Channels.WebUI.Enabled = false
	cfg.Tools.GeocodeURL = ""
	cfg.Tools.WeatherURL = ""
	cfg.Tools.SearchURL = ""
	cfg.Metrics.Enabled = false
	return cfg
}

func scriptedFactory(b llm.Backend) BackendFactory {
	return func(*config.Config) (llm.Backend, error) { return b, nil }
}

func newTestGateway(t *testing.T, cfg *config.Config, backend llm.Backend) *Gateway {
	t.Helper()
	g, err := NewWithOptions(cfg, Options{
		BackendFactory: scriptedFactory(backend),
		Fs:             afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}
	return g
}

// blockingAssistant holds every Converse call until release is closed.
type blockingAssistant struct {
	mu       sync.Mutex
	inflight int
	peak     int
	release  chan struct{}
}

func (b *blockingAssistant) Converse(ctx context.Context, session, msg string) (string, error) {
	b.mu.Lock()
	b.inflight++
	if b.inflight > b.peak {
		b.peak = b.inflight
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
	}

	b.mu.Lock()
	b.inflight--
	b.mu.Unlock()
	return "echo: " + msg, nil
}

func (b *blockingAssistant) Peak() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNewServices(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewServices(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatalf("NewServices error: %v", err)
	}
	defer s.Close()

	want := []string{
		"search_destinations",
		"get_weather",
		"calculate_budget",
		"get_attractions",
		"search_knowledge",
		"create_itinerary",
		"get_local_tips",
		"search_web",
	}
	if diff := cmp.Diff(want, s.Registry.Names()); diff != "" {
		t.Errorf("registered tools (-want +got):\n%s", diff)
	}
	if s.Agent == nil || s.Planner == nil || s.Executor == nil {
		t.Fatal("expected agent, planner and executor")
	}
	if s.Metrics != nil {
		t.Error("metrics should be nil when disabled")
	}
	if s.Knowledge == nil {
		t.Fatal("expected knowledge index")
	}
	n, err := s.Knowledge.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n == 0 {
		t.Error("built-in notes were not seeded")
	}
}

func TestNewServices_MetricsEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	s, err := NewServices(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
	})
	if err != nil {
		t.Fatalf("NewServices error: %v", err)
	}
	defer s.Close()
	if s.Metrics == nil {
		t.Error("metrics should be created when enabled")
	}
}

func TestNewServices_BackendFactoryError(t *testing.T) {
	cfg := testConfig(t)
	wantErr := errors.New("no backend")
	_, err := NewServices(cfg, Options{
		BackendFactory: func(*config.Config) (llm.Backend, error) { return nil, wantErr },
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestDefaultBackendFactory_NoAPIKey(t *testing.T) {
	cfg := testConfig(t)
	b, err := DefaultBackendFactory(cfg)
	if err != nil {
		t.Fatalf("DefaultBackendFactory error: %v", err)
	}
	if b == nil {
		t.Fatal("expected offline backend")
	}
}

func TestServices_Reindex(t *testing.T) {
	cfg := testConfig(t)
	fs := afero.NewMemMapFs()
	s, err := NewServices(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             fs,
	})
	if err != nil {
		t.Fatalf("NewServices error: %v", err)
	}
	defer s.Close()

	doc := "---\ntitle: Lisbon trams\ndestination: Lisbon\n---\nTram 28 is crowded before 10am."
	path := filepath.Join(cfg.KnowledgeDir(), "lisbon.md")
	if err := afero.WriteFile(fs, path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := s.Reindex()
	if err != nil {
		t.Fatalf("Reindex error: %v", err)
	}
	if !strings.Contains(summary, "1 documents") {
		t.Errorf("summary = %q, want 1 document", summary)
	}
	got, err := s.Knowledge.Get("file:lisbon.md")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || got.Title != "Lisbon trams" {
		t.Errorf("indexed doc = %+v", got)
	}

	if err := fs.Remove(path); err != nil {
		t.Fatal(err)
	}
	summary, err = s.Reindex()
	if err != nil {
		t.Fatalf("Reindex error: %v", err)
	}
	if !strings.Contains(summary, "(1 removed)") {
		t.Errorf("summary = %q, want 1 removed", summary)
	}
}

func TestServices_ReindexWithoutKnowledge(t *testing.T) {
	s := &Services{}
	if _, err := s.Reindex(); !errors.Is(err, ErrKnowledgeUnavailable) {
		t.Errorf("err = %v, want ErrKnowledgeUnavailable", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

func TestGateway_ProcessLoop(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("Hello traveler!"))
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.processLoop(ctx)

	g.bus.Inbound <- bus.InboundMessage{
		Channel:  "test",
		SenderID: "user1",
		ChatID:   "chat1",
		Content:  "hello",
	}

	select {
	case out := <-g.bus.Outbound:
		want := bus.OutboundMessage{Channel: "test", ChatID: "chat1", Content: "Hello traveler!"}
		if diff := cmp.Diff(want, out); diff != "" {
			t.Errorf("outbound (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound message")
	}
}

func TestGateway_ProcessLoop_SessionHistory(t *testing.T) {
	cfg := testConfig(t)
	backend := llmtest.New("Hello traveler!")
	g := newTestGateway(t, cfg, backend)
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.processLoop(ctx)

	send := func(chatID, content string) {
		t.Helper()
		g.bus.Inbound <- bus.InboundMessage{Channel: "telegram", ChatID: chatID, Content: content}
		select {
		case <-g.bus.Outbound:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for outbound message")
		}
	}
	send("42", "hello")
	send("42", "what about tomorrow?")
	send("99", "hello")

	calls := backend.Calls()
	if len(calls) != 3 {
		t.Fatalf("backend calls = %d, want 3", len(calls))
	}
	want := []llm.Turn{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "Hello traveler!"},
	}
	if diff := cmp.Diff(want, calls[1].Turns[:len(calls[1].Turns)-1]); diff != "" {
		t.Errorf("follow-up history (-want +got):\n%s", diff)
	}
	if n := len(calls[2].Turns); n != 1 {
		t.Errorf("other chat saw %d turns, want 1", n)
	}
	if n := len(g.services.Sessions.History("telegram:42")); n != 4 {
		t.Errorf("stored turns = %d, want 4", n)
	}
}

func TestGateway_ProcessLoop_AssistantError(t *testing.T) {
	cfg := testConfig(t)
	backend := llmtest.NewSteps(llmtest.Step{Err: errors.New("provider down")})
	g := newTestGateway(t, cfg, backend)
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.processLoop(ctx)

	g.bus.Inbound <- bus.InboundMessage{Channel: "test", ChatID: "chat1", Content: "hello"}

	select {
	case out := <-g.bus.Outbound:
		if out.Content != errorReply {
			t.Errorf("content = %q, want apology", out.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound message")
	}
}

func TestGateway_ProcessLoop_Concurrent(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("unused"))
	defer g.Shutdown()

	fake := &blockingAssistant{release: make(chan struct{})}
	g.assistant = fake

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.processLoop(ctx)

	for i := 0; i < 3; i++ {
		g.bus.Inbound <- bus.InboundMessage{Channel: "test", ChatID: "chat", Content: "hi"}
	}

	deadline := time.Now().Add(2 * time.Second)
	for fake.Peak() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fake.Peak() < 3 {
		t.Fatalf("peak concurrency = %d, want 3", fake.Peak())
	}
	close(fake.release)

	for i := 0; i < 3; i++ {
		select {
		case out := <-g.bus.Outbound:
			if out.Content != "echo: hi" {
				t.Errorf("content = %q", out.Content)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for replies")
		}
	}
}

func TestGateway_ProcessLoop_ContextCancelled(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("ok"))
	defer g.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.processLoop(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("processLoop did not exit after cancel")
	}
}

func TestNewWithOptions_ChannelManagerError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Channels.WebUI.Enabled = true
	cfg.Gateway.Port = 70000

	_, err := NewWithOptions(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
	})
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestGateway_CronOnJob(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("cron result"))
	defer g.Shutdown()

	job := cron.CronJob{ID: "test-job", Payload: cron.Payload{Message: "hello"}}
	result, err := g.cron.OnJob(context.Background(), job)
	if err != nil {
		t.Fatalf("OnJob error: %v", err)
	}
	if result != "cron result" {
		t.Errorf("result = %q, want 'cron result'", result)
	}
	select {
	case msg := <-g.bus.Outbound:
		t.Errorf("unexpected delivery: %+v", msg)
	default:
	}
}

func TestGateway_CronOnJob_WithDelivery(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("delivered result"))
	defer g.Shutdown()

	job := cron.CronJob{
		ID: "test-job",
		Payload: cron.Payload{
			Message: "hello",
			Deliver: true,
			Channel: "telegram",
			To:      "12345",
		},
	}
	result, err := g.cron.OnJob(context.Background(), job)
	if err != nil {
		t.Fatalf("OnJob error: %v", err)
	}
	if result != "delivered result" {
		t.Errorf("result = %q", result)
	}

	select {
	case msg := <-g.bus.Outbound:
		want := bus.OutboundMessage{Channel: "telegram", ChatID: "12345", Content: "delivered result"}
		if diff := cmp.Diff(want, msg); diff != "" {
			t.Errorf("outbound (-want +got):\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for outbound message")
	}
}

func TestGateway_CronOnJob_Error(t *testing.T) {
	cfg := testConfig(t)
	backend := llmtest.NewSteps(llmtest.Step{Err: context.DeadlineExceeded})
	g := newTestGateway(t, cfg, backend)
	defer g.Shutdown()

	job := cron.CronJob{ID: "test-job", Payload: cron.Payload{Message: "hello", Deliver: true, Channel: "webui"}}
	if _, err := g.cron.OnJob(context.Background(), job); err == nil {
		t.Error("expected error from assistant")
	}
}

func TestGateway_CronOnJob_Reindex(t *testing.T) {
	cfg := testConfig(t)
	backend := llmtest.New("unused")
	g := newTestGateway(t, cfg, backend)
	defer g.Shutdown()

	job := cron.CronJob{ID: "reindex", Payload: cron.Payload{Message: reindexJobMsg}}
	result, err := g.cron.OnJob(context.Background(), job)
	if err != nil {
		t.Fatalf("OnJob error: %v", err)
	}
	if !strings.Contains(result, "built-in notes") {
		t.Errorf("result = %q", result)
	}
	if backend.CallCount() != 0 {
		t.Errorf("reindex should not call the backend, got %d calls", backend.CallCount())
	}
}

func TestGateway_EnsureInternalJobs(t *testing.T) {
	cfg := testConfig(t)
	g := newTestGateway(t, cfg, llmtest.New("ok"))
	defer g.Shutdown()

	for i := 0; i < 2; i++ {
		if err := g.ensureInternalJobs(); err != nil {
			t.Fatalf("ensureInternalJobs error: %v", err)
		}
	}

	jobs := g.cron.ListJobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	want := cron.Schedule{Kind: cron.KindCron, Expr: reindexJobExpr}
	if diff := cmp.Diff(want, jobs[0].Schedule); diff != "" {
		t.Errorf("schedule (-want +got):\n%s", diff)
	}
	if jobs[0].Payload.Message != reindexJobMsg {
		t.Errorf("payload = %q", jobs[0].Payload.Message)
	}
}

func TestGateway_Run_WithSignalChan(t *testing.T) {
	cfg := testConfig(t)
	sigCh := make(chan os.Signal, 1)
	g, err := NewWithOptions(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
		SignalChan:     sigCh,
	})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	sigCh <- os.Interrupt

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit after signal")
	}

	if len(g.cron.ListJobs()) != 1 {
		t.Errorf("internal reindex job not registered")
	}
}

func TestGateway_Run_ContextCancel(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewWithOptions(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
		SignalChan:     make(chan os.Signal, 1),
	})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

func TestGateway_Run_ChannelStartError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig(t)
	cfg.Channels.WebUI.Enabled = true
	cfg.Gateway.Host = "127.0.0.1"
	cfg.Gateway.Port = ln.Addr().(*net.TCPAddr).Port

	g, err := NewWithOptions(cfg, Options{
		BackendFactory: scriptedFactory(llmtest.New("ok")),
		Fs:             afero.NewMemMapFs(),
		SignalChan:     make(chan os.Signal, 1),
	})
	if err != nil {
		t.Fatalf("NewWithOptions error: %v", err)
	}

	if err := g.Run(context.Background()); err == nil {
		t.Error("expected error when the web UI port is taken")
	}
}
