package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkeye/PlanningPoker/internal/adapters/signal"
	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/backlog"
	"github.com/dkeye/PlanningPoker/internal/config"
	"github.com/dkeye/PlanningPoker/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

type client struct {
	t       *testing.T
	r       *gin.Engine
	cookies []*http.Cookie
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			cl.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	cl.r.ServeHTTP(rec, req)
	if got := rec.Result().Cookies(); len(got) > 0 {
		cl.cookies = got
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestServer(t, nil)
}

// newTestServer wires a signal controller on hub when hub is non-nil.
func newTestServer(t *testing.T, hub core.Hub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fs := afero.NewMemMapFs()
	store := backlog.NewStore(backlog.NewFilePersister(fs, "backlog.json"), backlog.DefaultLimits())
	coord := app.NewCoordinator(store, backlog.NewFilePersister(fs, "pause.json"), app.Options{
		AllowList: []string{"lina", "hugo"},
		Roles:     app.DefaultRoleNames(),
	})
	cfg := &config.Config{Mode: "test", Secret: "test-secret"}
	var ctl *signal.SignalWSController
	if hub != nil {
		ctl = signal.NewSignalWSController(coord, hub, signal.Options{})
	}
	return SetupRouter(context.Background(), cfg, coord, ctl)
}

func newClient(t *testing.T, r *gin.Engine, pseudonym string) *client {
	t.Helper()
	cl := &client{t: t, r: r}
	if pseudonym == "" {
		return cl
	}
	rec := cl.do(http.MethodPost, "/api/join", gin.H{"pseudonym": pseudonym})
	if rec.Code != http.StatusCreated {
		t.Fatalf("join %s: status %d body %s", pseudonym, rec.Code, rec.Body.String())
	}
	return cl
}

func TestEstimationFlow(t *testing.T) {
	r := newTestRouter(t)
	po := newClient(t, r, "po")
	sm := newClient(t, r, "sm")
	lina := newClient(t, r, "lina")
	hugo := newClient(t, r, "hugo")

	rec := po.do(http.MethodPost, "/api/backlog", gin.H{
		"name":                  "checkout",
		"priority":              "2",
		"difficulty":            8,
		"voting_mode":           "Average",
		"expected_participants": []string{"lina", "hugo"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add feature: %d %s", rec.Code, rec.Body.String())
	}
	added := decode[struct {
		ID       int `json:"id"`
		Priority int `json:"priority"`
	}](t, rec)
	if added.ID != 1 || added.Priority != 2 {
		t.Fatalf("unexpected feature %+v", added)
	}

	if rec := sm.do(http.MethodPost, "/api/round/initiate", nil); rec.Code != http.StatusOK {
		t.Fatalf("initiate: %d %s", rec.Code, rec.Body.String())
	}
	for _, cl := range []*client{lina, hugo} {
		if rec := cl.do(http.MethodPost, "/api/round/vote", gin.H{"card": "5"}); rec.Code != http.StatusOK {
			t.Fatalf("vote: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec = sm.do(http.MethodPost, "/api/round/validate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Approved  bool   `json:"approved"`
		Card      string `json:"card"`
		FeatureID int    `json:"feature_id"`
	}](t, rec)
	if !res.Approved || res.Card != "5" || res.FeatureID != 1 {
		t.Fatalf("unexpected validation %+v", res)
	}

	rec = lina.do(http.MethodGet, "/api/backlog", nil)
	list := decode[struct {
		Features []struct {
			Status   string `json:"status"`
			Estimate string `json:"estimate"`
		} `json:"features"`
	}](t, rec)
	if len(list.Features) != 1 || list.Features[0].Status != "done" || list.Features[0].Estimate != "5" {
		t.Fatalf("unexpected backlog %+v", list)
	}
}

func TestSessionCarriesIdentity(t *testing.T) {
	r := newTestRouter(t)
	lina := newClient(t, r, "lina")

	rec := lina.do(http.MethodGet, "/api/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); !strings.Contains(body, `"lina"`) {
		t.Fatalf("identity missing from %s", body)
	}

	if rec := lina.do(http.MethodPost, "/api/leave", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("leave: %d", rec.Code)
	}
	parts := decode[struct {
		Participants []any `json:"participants"`
	}](t, lina.do(http.MethodGet, "/api/participants", nil))
	if len(parts.Participants) != 0 {
		t.Fatalf("roster not empty after leave: %+v", parts.Participants)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	r := newTestRouter(t)
	po := newClient(t, r, "po")
	sm := newClient(t, r, "sm")
	lina := newClient(t, r, "lina")

	tests := []struct {
		name   string
		cl     *client
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"not allow-listed", newClient(t, r, ""), http.MethodPost, "/api/join", gin.H{"pseudonym": "mallory"}, http.StatusForbidden, "UNAUTHORIZED"},
		{"pseudonym taken", newClient(t, r, ""), http.MethodPost, "/api/join", gin.H{"pseudonym": "LINA"}, http.StatusConflict, "CONFLICT"},
		{"voter adds feature", lina, http.MethodPost, "/api/backlog", gin.H{"name": "x", "priority": 1, "difficulty": 1}, http.StatusForbidden, "UNAUTHORIZED"},
		{"invalid priority", po, http.MethodPost, "/api/backlog", gin.H{"name": "x", "priority": 99, "difficulty": 1}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad feature id", po, http.MethodDelete, "/api/backlog/abc", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing feature", po, http.MethodDelete, "/api/backlog/42", nil, http.StatusNotFound, "NOT_FOUND"},
		{"no current feature", sm, http.MethodPost, "/api/round/initiate", nil, http.StatusNotFound, "NOT_FOUND"},
		{"vote without card", lina, http.MethodPost, "/api/round/vote", gin.H{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"vote before initiate", lina, http.MethodPost, "/api/round/vote", gin.H{"card": "3"}, http.StatusUnprocessableEntity, "INVALID_STATE"},
		{"unknown card", lina, http.MethodPost, "/api/round/vote", gin.H{"card": "4"}, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cl.t = t
			rec := tt.cl.do(tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			body := decode[struct {
				Error string `json:"error"`
			}](t, rec)
			if body.Error != tt.kind {
				t.Fatalf("error = %q, want %q", body.Error, tt.kind)
			}
		})
	}
}

func TestCardsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := newClient(t, r, "").do(http.MethodGet, "/api/cards", nil)
	cards := decode[struct {
		Cards   []string `json:"cards"`
		Numeric []string `json:"numeric"`
	}](t, rec)
	if rec.Code != http.StatusOK || len(cards.Numeric) != 10 || len(cards.Cards) != 12 || cards.Numeric[0] != "1" {
		t.Fatalf("cards: %d %+v", rec.Code, cards)
	}
}

type stubConn struct{ closed bool }

func (c *stubConn) TrySend(core.Frame) error { return nil }
func (c *stubConn) Close() { c.closed = true }

func TestDisconnectAllClosesConnections(t *testing.T) {
	hub := core.NewHub()
	r := newTestServer(t, hub)
	sm := newClient(t, r, "sm")
	newClient(t, r, "lina")
	lina, smConn := &stubConn{}, &stubConn{}
	hub.Attach("c-lina", "lina-token", lina)
	hub.Attach("c-sm", "sm-token", smConn)

	rec := sm.do(http.MethodPost, "/api/disconnect-all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect-all: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[struct {
		Removed int `json:"removed"`
	}](t, rec); got.Removed != 2 {
		t.Fatalf("removed = %d, want 2", got.Removed)
	}
	if !lina.closed || !smConn.closed || hub.Count() != 0 {
		t.Fatalf("connections still open: count=%d", hub.Count())
	}
}
