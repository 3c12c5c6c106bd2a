package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/watchbridge/internal/app"
	"github.com/dkeye/watchbridge/internal/app/orch"
	"github.com/dkeye/watchbridge/internal/config"
	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/gin-gonic/gin"
)

type fakeTransport struct {
	mu          sync.Mutex
	state       domain.SessionState
	activations int
}

func (t *fakeTransport) Activate(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activations++
	t.state = domain.Activating
}

func (t *fakeTransport) Deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = domain.Deactivated
}

func (t *fakeTransport) CurrentState() domain.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *fakeTransport) SessionID() domain.SessionID { return "s-1" }
func (t *fakeTransport) OnStateChanged(core.StateHandler) {}
func (t *fakeTransport) OnMessage(core.MessageHandler) {}

func newTestRouter(t *testing.T, runLoop bool) (*gin.Engine, *orch.Orchestrator, *fakeTransport) {
	t.Helper()
	cfg := &config.Config{
		Mode:       "test",
		Secret:     "test-secret",
		SendBuffer: 16,
		ReadLimit:  1 << 16,
		PingPeriod: time.Second,
		Activation: config.ActivationConfig{Limit: 1, Interval: time.Minute},
	}
	reg := app.NewRegistry()
	tr := &fakeTransport{state: domain.NotActivated}
	o := &orch.Orchestrator{
		Loop:       app.NewMainLoop(),
		Transport:  tr,
		Dispatcher: app.NewDispatcher(reg, app.NewChannelManager(), app.SimplePolicy{}),
		Registry:   reg,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if runLoop {
		go o.Loop.Run(ctx)
	} else {
		closed, stop := context.WithCancel(context.Background())
		stop()
		o.Loop.Run(closed)
	}
	return SetupRouter(ctx, cfg, o), o, tr
}

func post(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCommandEndpoint(t *testing.T) {
	r, o, _ := newTestRouter(t, true)
	path := "/api/channel/" + string(domain.NotifyOnKillChannel)

	w := post(r, path, `{"method":"setNotificationOnKillService","arguments":{"title":"Bye","description":"Later"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if p, ok := o.Dispatcher.PendingNotification(); !ok || p.Title != "Bye" {
		t.Fatalf("unexpected pending %+v %v", p, ok)
	}

	w = post(r, path, `{"method":"selfDestruct"}`)
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", w.Code)
	}
	var res core.MethodResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != core.StatusNotImplemented || res.Method != "selfDestruct" {
		t.Fatalf("unexpected result %+v", res)
	}

	w = post(r, path, `{`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCommandEndpointLoopClosed(t *testing.T) {
	r, _, _ := newTestRouter(t, false)
	w := post(r, "/api/channel/"+string(domain.NotifyOnKillChannel), `{"method":"setNotificationOnKillService"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	r, _, tr := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st struct {
		Session string `json:"session"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Session != "s-1" || st.State != "not_activated" {
		t.Fatalf("unexpected status %+v", st)
	}

	w = post(r, "/api/session/activate", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected client session cookie")
	}

	w = post(r, "/api/session/activate", "", cookies...)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if tr.activations != 1 {
		t.Fatalf("expected one activation, got %d", tr.activations)
	}

	w = post(r, "/api/session/deactivate", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "deactivated") {
		t.Fatalf("unexpected deactivate response %d %s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected healthz %d %s", w.Code, w.Body.String())
	}
}
