package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"coffeemarket/internal/config"
	"coffeemarket/internal/game"
)

func newTestServer(t *testing.T, maxSessions int) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(config.APIConfig{MaxSessions: maxSessions}, logger, game.NewService(logger, maxSessions))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var created struct {
		ID       string        `json:"id"`
		Snapshot game.Snapshot `json:"snapshot"`
	}
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", nil, &created); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if created.ID == "" || created.Snapshot.Stats.Round != 1 {
		t.Fatalf("unexpected create payload %+v", created)
	}
	return created.ID
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, 0)
	var out map[string]any
	if code := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, &out); code != http.StatusOK || out["ok"] != true {
		t.Fatalf("healthz code=%d body=%v", code, out)
	}
}

func TestPlayRoundOverHTTP(t *testing.T) {
	ts := newTestServer(t, 0)
	id := createSession(t, ts)
	base := ts.URL + "/v1/sessions/" + id

	var res game.Result
	if code := doJSON(t, http.MethodPost, base+"/rounds", nil, &res); code != http.StatusOK {
		t.Fatalf("round status %d", code)
	}
	if res.Snapshot.Stats.Round != 2 || res.Outcome.Round == nil || res.Outcome.Round.Customers != 207 {
		t.Fatalf("unexpected round result %+v", res.Outcome)
	}
	if res.Outcome.MessageKind != game.MessageHealthy {
		t.Fatalf("message kind got %q", res.Outcome.MessageKind)
	}

	var snap game.Snapshot
	if code := doJSON(t, http.MethodGet, base, nil, &snap); code != http.StatusOK {
		t.Fatalf("state status %d", code)
	}
	if snap.Stats.Round != 2 || snap.Stats.Money.String() != "7245500" {
		t.Fatalf("unexpected state round=%d money=%s", snap.Stats.Round, snap.Stats.Money)
	}
}

func TestSettingsValidation(t *testing.T) {
	ts := newTestServer(t, 0)
	base := ts.URL + "/v1/sessions/" + createSession(t, ts)

	bad := game.PlayerSettings{Price: 35_500, Quality: 50, Marketing: 30}
	if code := doJSON(t, http.MethodPut, base+"/settings", bad, nil); code != http.StatusBadRequest {
		t.Fatalf("off-step price status %d want 400", code)
	}

	good := game.PlayerSettings{Price: 24_000, Quality: 90, Marketing: 10}
	var res game.Result
	if code := doJSON(t, http.MethodPut, base+"/settings", good, &res); code != http.StatusOK {
		t.Fatalf("settings status %d", code)
	}
	if res.Snapshot.Settings != good {
		t.Fatalf("settings got %+v", res.Snapshot.Settings)
	}

	if code := doJSON(t, http.MethodPut, base+"/settings", map[string]any{"price": 30000, "sugar": 2}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown field status %d want 400", code)
	}
}

func TestAcquireOverHTTP(t *testing.T) {
	ts := newTestServer(t, 0)
	base := ts.URL + "/v1/sessions/" + createSession(t, ts)

	var rejected map[string]any
	code := doJSON(t, http.MethodPost, base+"/acquisitions", map[string]any{"competitor_id": 1}, &rejected)
	if code != http.StatusBadRequest || rejected["notice"] == nil {
		t.Fatalf("insufficient funds code=%d body=%v", code, rejected)
	}

	doJSON(t, http.MethodPost, base+"/rounds", nil, nil)

	var res game.Result
	if code := doJSON(t, http.MethodPost, base+"/acquisitions", map[string]any{"competitor_id": 3}, &res); code != http.StatusOK {
		t.Fatalf("acquire status %d", code)
	}
	if !res.Outcome.Applied || res.Outcome.Acquisition == nil || res.Outcome.Acquisition.CompetitorID != 3 {
		t.Fatalf("unexpected acquisition %+v", res.Outcome)
	}

	if code := doJSON(t, http.MethodPost, base+"/acquisitions", map[string]any{"competitor_id": 99}, &res); code != http.StatusOK {
		t.Fatalf("unknown competitor status %d", code)
	}
	if res.Outcome.Applied {
		t.Fatalf("unknown competitor must be a no-op")
	}

	var market struct {
		Market game.MarketStructure `json:"market"`
	}
	if code := doJSON(t, http.MethodGet, base+"/market", nil, &market); code != http.StatusOK {
		t.Fatalf("market status %d", code)
	}
	if market.Market.Kind != game.MarketImperfectCompetition {
		t.Fatalf("market got %q", market.Market.Kind)
	}
}

func TestCommandsBatch(t *testing.T) {
	ts := newTestServer(t, 0)
	base := ts.URL + "/v1/sessions/" + createSession(t, ts)

	body := map[string]any{"commands": []map[string]any{
		{"type": "set_settings", "settings": map[string]any{"price": 24000, "quality": 60, "marketing": 20}},
		{"type": "play_round"},
		{"type": "play_round"},
	}}
	var out struct {
		Results  []game.ReplayResult `json:"results"`
		Snapshot game.Snapshot       `json:"snapshot"`
	}
	if code := doJSON(t, http.MethodPost, base+"/commands", body, &out); code != http.StatusOK {
		t.Fatalf("commands status %d", code)
	}
	if len(out.Results) != 3 || out.Snapshot.Stats.Round != 3 {
		t.Fatalf("unexpected batch result %+v", out)
	}

	bad := map[string]any{"commands": []map[string]any{
		{"type": "set_settings", "settings": map[string]any{"price": 1, "quality": 60, "marketing": 20}},
	}}
	if code := doJSON(t, http.MethodPost, base+"/commands", bad, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid batch settings status %d want 400", code)
	}
}

func TestUnknownSessionAndLimit(t *testing.T) {
	ts := newTestServer(t, 1)
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown session status %d want 404", code)
	}
	id := createSession(t, ts)
	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("limit status %d want 503", code)
	}
	if code := doJSON(t, http.MethodDelete, ts.URL+"/v1/sessions/"+id, nil, nil); code != http.StatusOK {
		t.Fatalf("end status %d", code)
	}
	createSession(t, ts)
}
