package opendota

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dotalytics/dota-ingest/internal/platform/resilience"
	"github.com/dotalytics/dota-ingest/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		HTTPClient:  server.Client(),
		BaseURL:     server.URL,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg), server
}

func TestClient_FetchProMatches(t *testing.T) {
	t.Parallel()

	var sawQuery atomic.Value
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"match_id": 900, "start_time": 1700000100, "duration": 2100, "leagueid": 15728, "radiant_win": true},
			{"match_id": 800, "start_time": 1700000000, "duration": 1900, "leagueid": 15728, "radiant_win": false},
			{"match_id": 700, "start_time": 1699999900, "duration": 2500, "leagueid": 15728, "radiant_win": true}
		]`))
	}, func(cfg *ClientConfig) {
		cfg.APIKey = "secret-key"
	})

	rows, err := client.FetchProMatches(context.Background(), 2, 950)
	if err != nil {
		t.Fatalf("FetchProMatches error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected limit to cap rows at 2, got=%d", len(rows))
	}
	if rows[0].MatchID != 900 || rows[1].MatchID != 800 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	query, _ := sawQuery.Load().(string)
	if query != "api_key=secret-key&less_than_match_id=950" {
		t.Fatalf("unexpected query string: %q", query)
	}
}

func TestClient_NotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}, nil)

	_, err := client.FetchMatchDetail(context.Background(), 7001)
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("404 must not be retried, attempts=%d", attempts.Load())
	}
}

func TestClient_RejectedRequestIsTerminal(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}, nil)

	_, err := client.FetchLeagues(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got: %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("4xx must not be retried, attempts=%d", attempts.Load())
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			http.Error(w, "upstream blew up", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"leagueid": 1, "name": "DPC", "tier": "professional"}]`))
	}, nil)

	rows, err := client.FetchLeagues(context.Background())
	if err != nil {
		t.Fatalf("FetchLeagues error: %v", err)
	}
	if len(rows) != 1 || rows[0].LeagueID != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected 2 retries then success, attempts=%d", attempts.Load())
	}
}

func TestClient_RetryBudgetExhausted(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "upstream blew up", http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 2
	})

	_, err := client.FetchLeagues(context.Background())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, attempts=%d", attempts.Load())
	}
}

func TestClient_RateLimitHonorsRetryAfter(t *testing.T) {
	t.Parallel()

	fakeClock := clockwork.NewFakeClock()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, func(cfg *ClientConfig) {
		cfg.Clock = fakeClock
		// An hour of backoff would hang the test unless the Retry-After
		// header overrides the computed delay.
		cfg.BackoffBase = time.Hour
		cfg.BackoffMax = 2 * time.Hour
	})

	done := make(chan error, 1)
	go func() {
		_, err := client.FetchLeagues(context.Background())
		done <- err
	}()

	// The client parks on the rate-limit delay before the second attempt.
	fakeClock.BlockUntil(1)
	fakeClock.Advance(7 * time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("FetchLeagues error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client did not resume after the Retry-After delay")
	}
	if attempts.Load() != 2 {
		t.Fatalf("expected one retry after 429, attempts=%d", attempts.Load())
	}
}

// recordingClock captures every delay handed to After and fires it
// immediately so retry loops run without wall-clock sleeps.
type recordingClock struct {
	clockwork.Clock

	mu     sync.Mutex
	delays []time.Duration
}

func newRecordingClock() *recordingClock {
	return &recordingClock{Clock: clockwork.NewRealClock()}
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (c *recordingClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func TestClient_RateLimitBackoffCurve(t *testing.T) {
	t.Parallel()

	clock := newRecordingClock()
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, func(cfg *ClientConfig) {
		cfg.Clock = clock
		cfg.MaxRetries = 6
		cfg.BackoffBase = 2 * time.Second
		cfg.BackoffMax = 8 * time.Second
	})

	_, err := client.FetchLeagues(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after exhausting retries, got: %v", err)
	}
	if attempts.Load() != 7 {
		t.Fatalf("expected initial attempt plus 6 retries, attempts=%d", attempts.Load())
	}

	delays := clock.Delays()
	if len(delays) != 6 {
		t.Fatalf("expected one delay per retry, got=%d: %v", len(delays), delays)
	}

	// Without a Retry-After header the delays follow the doubling curve
	// capped at BackoffMax, each sample jittered by at most 30%.
	centers := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for i, d := range delays {
		low := time.Duration(float64(centers[i]) * 0.7)
		high := time.Duration(float64(centers[i]) * 1.3)
		if d < low || d > high {
			t.Fatalf("delay %d = %v outside [%v, %v]: %v", i, d, low, high, delays)
		}
	}
	// The jitter bands below the cap do not overlap, so the sampled
	// delays must grow until the cap is reached.
	if delays[1] <= delays[0] || delays[2] <= delays[1] {
		t.Fatalf("delays must grow until the cap: %v", delays)
	}
}

func TestClient_MalformedPayloadRefetchedOnce(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			_, _ = w.Write([]byte(`[{"leagueid": 1,`))
			return
		}
		_, _ = w.Write([]byte(`[{"leagueid": 1, "name": "DPC"}]`))
	}, nil)

	rows, err := client.FetchLeagues(context.Background())
	if err != nil {
		t.Fatalf("refetch should recover from one truncated payload: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if attempts.Load() != 2 {
		t.Fatalf("expected exactly one refetch, attempts=%d", attempts.Load())
	}
}

func TestClient_MalformedPayloadTwiceFails(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}, nil)

	_, err := client.FetchLeagues(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got: %v", err)
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream blew up", http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	if _, err := client.FetchLeagues(context.Background()); !errors.Is(err, ErrTransient) {
		t.Fatalf("expected the first call to fail transiently, got: %v", err)
	}
	if _, err := client.FetchLeagues(context.Background()); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected the open circuit to reject the second call, got: %v", err)
	}
}

func TestClient_RefetchFailureTripsCircuit(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			_, _ = w.Write([]byte(`[{"leagueid": 1,`))
			return
		}
		http.Error(w, "upstream blew up", http.StatusBadGateway)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	if _, err := client.FetchLeagues(context.Background()); !errors.Is(err, ErrTransient) {
		t.Fatalf("expected the refetch failure to surface, got: %v", err)
	}
	// The failed refetch counts against the breaker like any other
	// request, so the next call finds the circuit open.
	if _, err := client.FetchLeagues(context.Background()); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected the open circuit to reject the next call, got: %v", err)
	}
	if attempts.Load() != 2 {
		t.Fatalf("open circuit must not reach the server, attempts=%d", attempts.Load())
	}
}

func TestClient_MatchDetailMapping(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"match_id": 7001,
			"start_time": 1700000000,
			"duration": 2400,
			"radiant_win": true,
			"leagueid": 15728,
			"league": {"leagueid": 15728, "name": "The International", "tier": "premium"},
			"radiant_team": {"team_id": 11, "name": "Radiant Org", "tag": "RAD"},
			"dire_team": {"team_id": 22, "name": "Dire Org"},
			"players": [
				{"account_id": 101, "player_slot": 0, "hero_id": 14, "kills": 10, "deaths": 2, "assists": 8,
				 "benchmarks": {"gold_per_min": {"raw": 620, "pct": 0.93}}}
			],
			"objectives": [
				{"time": 500, "type": "building_kill", "key": 1234}
			]
		}`))
	}, nil)

	doc, err := client.FetchMatchDetail(context.Background(), 7001)
	if err != nil {
		t.Fatalf("FetchMatchDetail error: %v", err)
	}

	if doc.MatchID == nil || *doc.MatchID != 7001 {
		t.Fatalf("match id not mapped: %+v", doc.MatchID)
	}
	if doc.RadiantWin == nil || !*doc.RadiantWin {
		t.Fatal("radiant_win not mapped")
	}
	if doc.LeagueName != "The International" || doc.LeagueTier != "premium" {
		t.Fatalf("league not mapped: %q %q", doc.LeagueName, doc.LeagueTier)
	}
	if doc.RadiantTeam.TeamID != 11 || doc.DireTeam.TeamID != 22 {
		t.Fatalf("teams not mapped: %+v %+v", doc.RadiantTeam, doc.DireTeam)
	}
	if len(doc.Players) != 1 || doc.Players[0].PlayerSlot == nil || *doc.Players[0].PlayerSlot != 0 {
		t.Fatalf("players not mapped: %+v", doc.Players)
	}
	bench, ok := doc.Players[0].Benchmarks["gold_per_min"]
	if !ok || bench.Pct == nil || *bench.Pct != 0.93 {
		t.Fatalf("benchmarks not mapped: %+v", doc.Players[0].Benchmarks)
	}
	// Numeric building ids arrive as JSON numbers and are stringified.
	if len(doc.Objectives) != 1 || doc.Objectives[0].Key != "1234" {
		t.Fatalf("objectives not mapped: %+v", doc.Objectives)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		max  time.Duration
		want time.Duration
	}{
		{raw: "", max: time.Minute, want: 0},
		{raw: "5", max: time.Minute, want: 5 * time.Second},
		{raw: "120", max: time.Minute, want: time.Minute},
		{raw: "garbage", max: time.Minute, want: 0},
		{raw: "-3", max: time.Minute, want: 0},
	}

	for _, tc := range cases {
		if got := parseRetryAfter(tc.raw, tc.max); got != tc.want {
			t.Fatalf("parseRetryAfter(%q, %v) = %v, want %v", tc.raw, tc.max, got, tc.want)
		}
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api.example.com/x?api_key=topsecret": timeout`, "topsecret")
	if got != `Get "https://api.example.com/x?api_key=REDACTED": timeout` {
		t.Fatalf("api key leaked: %q", got)
	}
}

func TestRedactAPIURL(t *testing.T) {
	t.Parallel()

	got := redactAPIURL("https://api.example.com/proMatches?api_key=topsecret&less_than_match_id=10")
	if got != "https://api.example.com/proMatches?api_key=REDACTED&less_than_match_id=10" {
		t.Fatalf("api key leaked: %q", got)
	}
}
