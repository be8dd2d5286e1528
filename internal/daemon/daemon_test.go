package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/snapshot"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	csv := "id,dancer,video,media\n" +
		"a1,alpha,v1,clips/a1.mp4\n" +
		"b1,bravo,v1,clips/b1.mp4\n" +
		"a2,alpha,v2,clips/a2.mp4\n" +
		"c1,charlie,v2,clips/c1.mp4\n"
	datasetPath := filepath.Join(dir, "clips.csv")
	if err := os.WriteFile(datasetPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	cfg := &config.Config{
		Dataset: config.Dataset{
			Path: datasetPath,
			ID:   "showcase",
			Mode: string(snapshot.ModeBattle),
		},
		Assignment: config.Assignment{PoolSize: 1, OverlapRate: 0},
		Paths: config.Paths{
			LogDir:      filepath.Join(dir, "logs"),
			ExportDir:   filepath.Join(dir, "exports"),
			JournalPath: filepath.Join(dir, "journal.db"),
			APIBind:     "127.0.0.1:0",
		},
		Annotators: []config.Annotator{
			{ID: "ann-1", Name: "casey", Passcode: "step", Slot: 0, Role: config.RoleAnnotator},
			{ID: "gt-1", Name: "jordan", Passcode: "truth", Slot: 0, Role: config.RoleGroundTruth},
		},
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	d, err := New(testConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close daemon: %v", err)
		}
	})
	return d
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func signIn(t *testing.T, handler http.Handler, name, passcode string) signInResponse {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/signin", "", signInRequest{Name: name, Passcode: passcode})
	if w.Code != http.StatusOK {
		t.Fatalf("sign in %s: expected 200, got %d: %s", name, w.Code, w.Body.String())
	}
	var resp signInResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode sign-in response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	return resp
}

func TestSignInRejectsWrongPasscode(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	w := doJSON(t, handler, http.MethodPost, "/api/signin", "", signInRequest{Name: "casey", Passcode: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = doJSON(t, handler, http.MethodPost, "/api/signin", "", signInRequest{Name: "nobody", Passcode: "step"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown annotator, got %d", w.Code)
	}
}

func TestSignInReusesLiveSession(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	first := signIn(t, handler, "casey", "step")
	winner := first.Session.Current.Battle.Left.Dancer
	w := doJSON(t, handler, http.MethodPost, "/api/session/submit", first.Token,
		map[string]any{"winner": winner})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	second := signIn(t, handler, "casey", "step")
	if second.Token == first.Token {
		t.Fatal("expected a fresh token per sign-in")
	}
	if second.Session.Current.Submission == nil {
		t.Fatal("second sign-in should see the judgment made under the first token")
	}
	if d.sessions.Count() != 1 {
		t.Fatalf("expected one live session, got %d", d.sessions.Count())
	}

	w = doJSON(t, handler, http.MethodGet, "/api/session", first.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale token should be rejected after re-sign-in, got %d", w.Code)
	}

	signIn(t, handler, "casey", "step")
	d.sessions.mu.Lock()
	tokens := len(d.sessions.byToken)
	d.sessions.mu.Unlock()
	if tokens != 1 {
		t.Fatalf("token table should hold one token per roster entry, got %d", tokens)
	}
}

func TestSignInAndSubmitLogStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, err := New(testConfig(t), logger)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	defer d.Close()
	handler := d.apiServer.routes()

	resp := signIn(t, handler, "casey", "step")
	if want := `"session":"` + resp.Token[:8] + `"`; !strings.Contains(buf.String(), want) {
		t.Fatalf("sign-in log missing %s:\n%s", want, buf.String())
	}

	battle := resp.Session.Current.Battle
	w := doJSON(t, handler, http.MethodPost, "/api/session/submit", resp.Token,
		map[string]any{"winner": battle.Left.Dancer})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: got %d: %s", w.Code, w.Body.String())
	}
	if want := `"battle":"` + battle.Video + `"`; !strings.Contains(buf.String(), want) {
		t.Fatalf("submit log missing %s:\n%s", want, buf.String())
	}
}

func TestSubmitAdvanceExportRoundTrip(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	resp := signIn(t, handler, "casey", "step")
	token := resp.Token
	if resp.Session.Mode != string(snapshot.ModeBattle) {
		t.Fatalf("unexpected mode %q", resp.Session.Mode)
	}
	if resp.Session.History != 2 {
		t.Fatalf("expected both battles materialized, got history %d", resp.Session.History)
	}

	for i := 0; i < 2; i++ {
		w := doJSON(t, handler, http.MethodGet, "/api/session", token, nil)
		var view sessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
			t.Fatalf("decode session view: %v", err)
		}
		winner := view.Session.Current.Battle.Left.Dancer
		w = doJSON(t, handler, http.MethodPost, "/api/session/submit", token,
			map[string]any{"winner": winner})
		if w.Code != http.StatusOK {
			t.Fatalf("submit %d: got %d: %s", i, w.Code, w.Body.String())
		}
		w = doJSON(t, handler, http.MethodPost, "/api/session/advance", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("advance %d: got %d: %s", i, w.Code, w.Body.String())
		}
		var advanced sessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &advanced); err != nil {
			t.Fatalf("decode advance response: %v", err)
		}
		if i == 1 && !advanced.Done {
			t.Fatal("advancing past the last battle should report done")
		}
	}

	w := doJSON(t, handler, http.MethodGet, "/api/session/export", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: got %d", w.Code)
	}
	snap, err := snapshot.Decode(w.Body.Bytes())
	if err != nil {
		t.Fatalf("decode exported snapshot: %v", err)
	}
	if snap.Dataset != "showcase" || snap.Identity.ID != "ann-1" {
		t.Fatalf("unexpected snapshot header: dataset=%q identity=%q", snap.Dataset, snap.Identity.ID)
	}
	if len(snap.Decisions) != 2 {
		t.Fatalf("expected 2 decisions in export, got %d", len(snap.Decisions))
	}

	w = doJSON(t, handler, http.MethodPost, "/api/session/import", token, nil)
	if w.Code == http.StatusOK {
		t.Fatal("importing an empty body should fail")
	}
}

func TestSessionEndpointsRequireToken(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	w := doJSON(t, handler, http.MethodGet, "/api/session", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	w = doJSON(t, handler, http.MethodGet, "/api/session", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus token, got %d", w.Code)
	}
}

func TestReconcileRequiresGroundTruthRole(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	resp := signIn(t, handler, "casey", "step")
	w := doJSON(t, handler, http.MethodPost, "/api/reconcile", resp.Token,
		reconcileRequest{Snapshots: []json.RawMessage{json.RawMessage(`{}`)}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for annotator role, got %d", w.Code)
	}
}

func labelEverything(t *testing.T, handler http.Handler, token string, battles int) {
	t.Helper()
	for i := 0; i < battles; i++ {
		w := doJSON(t, handler, http.MethodGet, "/api/session", token, nil)
		var view sessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
			t.Fatalf("decode session view: %v", err)
		}
		winner := view.Session.Current.Battle.Left.Dancer
		w = doJSON(t, handler, http.MethodPost, "/api/session/submit", token,
			map[string]any{"winner": winner})
		if w.Code != http.StatusOK {
			t.Fatalf("submit battle %d: got %d: %s", i, w.Code, w.Body.String())
		}
		doJSON(t, handler, http.MethodPost, "/api/session/advance", token, nil)
	}
}

func TestReconcileAndFinalize(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	gt := signIn(t, handler, "jordan", "truth")
	if gt.Session.History != 2 {
		t.Fatalf("ground truth should own every battle, got history %d", gt.Session.History)
	}

	// Finalizing before all battles are judged must refuse and name the gap.
	w := doJSON(t, handler, http.MethodPost, "/api/finalize", gt.Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for incomplete truth, got %d: %s", w.Code, w.Body.String())
	}

	labelEverything(t, handler, gt.Token, 2)

	ann := signIn(t, handler, "casey", "step")
	labelEverything(t, handler, ann.Token, 2)
	export := doJSON(t, handler, http.MethodGet, "/api/session/export", ann.Token, nil)
	if export.Code != http.StatusOK {
		t.Fatalf("annotator export: got %d", export.Code)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/reconcile", gt.Token,
		reconcileRequest{Snapshots: []json.RawMessage{json.RawMessage(export.Body.Bytes())}})
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: got %d: %s", w.Code, w.Body.String())
	}
	var report struct {
		Accuracy []struct {
			Source string  `json:"source"`
			Rate   float64 `json:"rate"`
		} `json:"accuracy"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode reconcile report: %v", err)
	}
	if len(report.Accuracy) != 1 {
		t.Fatalf("expected one accuracy row, got %d", len(report.Accuracy))
	}
	if report.Accuracy[0].Rate != 1.0 {
		t.Fatalf("both sessions picked the left side, expected rate 1.0, got %v", report.Accuracy[0].Rate)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/finalize", gt.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize: got %d: %s", w.Code, w.Body.String())
	}
	var final finalizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &final); err != nil {
		t.Fatalf("decode finalize response: %v", err)
	}
	if final.Labels == 0 {
		t.Fatal("expected derived labels")
	}
	for _, path := range []string{final.LabelsPath, final.SummaryPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected export file %s: %v", path, err)
		}
	}
}

func TestJournalRecoveryAcrossDaemons(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	handler := first.apiServer.routes()
	resp := signIn(t, handler, "casey", "step")
	winner := resp.Session.Current.Battle.Left.Dancer
	w := doJSON(t, handler, http.MethodPost, "/api/session/submit", resp.Token,
		map[string]any{"winner": winner})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: got %d: %s", w.Code, w.Body.String())
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first daemon: %v", err)
	}

	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	defer func() {
		if err := second.Close(); err != nil {
			t.Errorf("close second daemon: %v", err)
		}
	}()
	handler = second.apiServer.routes()
	resumed := signIn(t, handler, "casey", "step")
	if resumed.Session.Current == nil || resumed.Session.Current.Submission == nil {
		t.Fatal("expected the journaled judgment to survive the restart")
	}
	if got := resumed.Session.Current.Submission.Winner; got != winner {
		t.Fatalf("recovered winner = %q, want %q", got, winner)
	}
}

func TestStatusReportsDatasetShape(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()

	w := doJSON(t, handler, http.MethodGet, "/api/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Clips != 4 || status.Battles != 2 {
		t.Fatalf("unexpected dataset shape: %+v", status)
	}
}

func TestDaemonStartRejectsSecondInstance(t *testing.T) {
	cfg := testConfig(t)
	first, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	defer first.Close()
	second, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	defer second.Close()

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start first: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail the lock")
	}
}

func TestMediaEndpointResolvesClips(t *testing.T) {
	d := testDaemon(t)
	handler := d.apiServer.routes()
	resp := signIn(t, handler, "casey", "step")

	w := doJSON(t, handler, http.MethodGet, "/api/media/unknown-clip", resp.Token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown clip, got %d", w.Code)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/media/a1?probe=1", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("probe: got %d", w.Code)
	}
	var diag struct {
		UnitID string
		OK     bool
		Kind   string
	}
	if err := json.Unmarshal(w.Body.Bytes(), &diag); err != nil {
		t.Fatalf("decode diagnostic: %v", err)
	}
	if diag.UnitID != "a1" {
		t.Fatalf("unexpected diagnostic unit %q", diag.UnitID)
	}
	if diag.OK {
		t.Fatal("clip file does not exist, probe should fail")
	}
}
