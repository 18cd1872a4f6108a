package opendota

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	backoff "github.com/cenkalti/backoff/v4"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/dotalytics/dota-ingest/internal/platform/logging"
	"github.com/dotalytics/dota-ingest/internal/platform/resilience"
	"github.com/dotalytics/dota-ingest/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.opendota.com/api"
	defaultBackoffBase = 2 * time.Second
	defaultBackoffMax  = 60 * time.Second
	maxResponseBytes   = 24 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)

// Error taxonomy for upstream responses. Rate-limited and transient
// failures are retried inside the client; rejected requests and missing
// resources surface immediately.
var (
	ErrRateLimited = crerr.New("opendota rate limited")
	ErrTransient   = crerr.New("opendota transient failure")
	ErrRejected    = crerr.New("opendota rejected request")
	ErrMalformed   = crerr.New("opendota malformed payload")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clockwork.Clock
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	backoffBase    time.Duration
	backoffMax     time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	clock          clockwork.Clock
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	backoffMax := cfg.BackoffMax
	if backoffMax <= 0 {
		backoffMax = defaultBackoffMax
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		backoffBase:    backoffBase,
		backoffMax:     backoffMax,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		clock:          clock,
	}
}

func (c *Client) FetchProMatches(ctx context.Context, limit int, lessThanMatchID int64) ([]usecase.ExternalMatchSummary, error) {
	query := map[string]string{}
	if lessThanMatchID > 0 {
		query["less_than_match_id"] = strconv.FormatInt(lessThanMatchID, 10)
	}

	var rows []proMatchRow
	if err := c.doJSON(ctx, "/proMatches", query, &rows); err != nil {
		return nil, fmt.Errorf("fetch pro matches: %w", err)
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]usecase.ExternalMatchSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapProMatchRow(row))
	}
	return out, nil
}

func (c *Client) FetchMatchDetail(ctx context.Context, matchID int64) (usecase.ExternalMatchDetail, error) {
	if matchID <= 0 {
		return usecase.ExternalMatchDetail{}, fmt.Errorf("match id must be greater than zero")
	}

	var envelope matchDetailEnvelope
	path := fmt.Sprintf("/matches/%d", matchID)
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return usecase.ExternalMatchDetail{}, fmt.Errorf("fetch match detail match_id=%d: %w", matchID, err)
	}
	return mapMatchDetail(envelope), nil
}

func (c *Client) FetchTeamMatches(ctx context.Context, teamID int64) ([]usecase.ExternalMatchSummary, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("team id must be greater than zero")
	}

	var rows []teamMatchRow
	path := fmt.Sprintf("/teams/%d/matches", teamID)
	if err := c.doJSON(ctx, path, nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch team matches team_id=%d: %w", teamID, err)
	}

	out := make([]usecase.ExternalMatchSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.ExternalMatchSummary{
			MatchID:    row.MatchID,
			StartTime:  row.StartTime,
			Duration:   row.Duration,
			LeagueID:   row.LeagueID,
			RadiantWin: row.RadiantWin,
		})
	}
	return out, nil
}

func (c *Client) FetchTeam(ctx context.Context, teamID int64) (usecase.ExternalTeam, error) {
	if teamID <= 0 {
		return usecase.ExternalTeam{}, fmt.Errorf("team id must be greater than zero")
	}

	var row teamRow
	path := fmt.Sprintf("/teams/%d", teamID)
	if err := c.doJSON(ctx, path, nil, &row); err != nil {
		return usecase.ExternalTeam{}, fmt.Errorf("fetch team team_id=%d: %w", teamID, err)
	}

	return usecase.ExternalTeam{
		TeamID:  row.TeamID,
		Name:    strings.TrimSpace(row.Name),
		Tag:     strings.TrimSpace(row.Tag),
		LogoURL: strings.TrimSpace(row.LogoURL),
		Rating:  row.Rating,
		Wins:    row.Wins,
		Losses:  row.Losses,
	}, nil
}

func (c *Client) FetchLeagues(ctx context.Context) ([]usecase.ExternalLeague, error) {
	var rows []leagueRef
	if err := c.doJSON(ctx, "/leagues", nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch leagues: %w", err)
	}

	out := make([]usecase.ExternalLeague, 0, len(rows))
	for _, row := range rows {
		if row.LeagueID <= 0 {
			continue
		}
		out = append(out, usecase.ExternalLeague{
			LeagueID: row.LeagueID,
			Name:     strings.TrimSpace(row.Name),
			Tier:     strings.TrimSpace(row.Tier),
		})
	}
	return out, nil
}

func (c *Client) FetchHeroes(ctx context.Context) ([]usecase.ExternalHero, error) {
	var rows []heroRow
	if err := c.doJSON(ctx, "/heroes", nil, &rows); err != nil {
		return nil, fmt.Errorf("fetch heroes: %w", err)
	}

	out := make([]usecase.ExternalHero, 0, len(rows))
	for _, row := range rows {
		if row.ID <= 0 {
			continue
		}
		out = append(out, usecase.ExternalHero{
			HeroID:        row.ID,
			Name:          strings.TrimSpace(row.Name),
			LocalizedName: strings.TrimSpace(row.LocalizedName),
			PrimaryAttr:   strings.TrimSpace(row.PrimaryAttr),
			AttackType:    strings.TrimSpace(row.AttackType),
			Roles:         row.Roles,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	key := path + "?" + values.Encode()

	raw, err := c.fetchRaw(ctx, key, fullURL)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err == nil {
		return nil
	}

	// A payload that fails to decode may be a truncated proxy response;
	// refetch once before giving up on the document.
	c.logger.WarnContext(ctx, "opendota payload failed to decode, refetching once", "url", redactAPIURL(fullURL))
	raw, err = c.fetchRaw(ctx, key, fullURL)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode provider payload: %v", ErrMalformed, err)
	}
	return nil
}

// fetchRaw is the only path to the upstream for one logical request.
// The circuit breaker gates it, concurrent duplicates collapse onto a
// single HTTP call, and the outcome feeds the breaker either way.
func (c *Client) fetchRaw(ctx context.Context, key, fullURL string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "opendota circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	bo.RandomizationFactor = 0.3
	bo.Multiplier = 2
	bo.MaxInterval = c.backoffMax
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var retryAfter time.Duration

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", ErrTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", ErrTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
			case resp.StatusCode == http.StatusTooManyRequests:
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.backoffMax)
				lastErr = fmt.Errorf("%w: provider status=429 body=%s", ErrRateLimited, abbreviateBody(raw))
			case resp.StatusCode >= http.StatusInternalServerError:
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", ErrTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("%w: provider status=%d body=%s", ErrRejected, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		delay := bo.NextBackOff()
		if retryAfter > 0 {
			delay = retryAfter
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(delay):
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "opendota request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func mapProMatchRow(row proMatchRow) usecase.ExternalMatchSummary {
	return usecase.ExternalMatchSummary{
		MatchID:       row.MatchID,
		StartTime:     row.StartTime,
		Duration:      row.Duration,
		LeagueID:      row.LeagueID,
		LeagueName:    strings.TrimSpace(row.LeagueName),
		RadiantTeamID: row.RadiantTeamID,
		RadiantName:   strings.TrimSpace(row.RadiantName),
		DireTeamID:    row.DireTeamID,
		DireName:      strings.TrimSpace(row.DireName),
		RadiantScore:  row.RadiantScore,
		DireScore:     row.DireScore,
		RadiantWin:    row.RadiantWin,
		SeriesID:      row.SeriesID,
		SeriesType:    row.SeriesType,
	}
}

func mapMatchDetail(envelope matchDetailEnvelope) usecase.ExternalMatchDetail {
	leagueID := envelope.LeagueID
	if leagueID <= 0 {
		leagueID = envelope.League.LeagueID
	}

	out := usecase.ExternalMatchDetail{
		MatchID:      envelope.MatchID,
		StartTime:    envelope.StartTime,
		Duration:     envelope.Duration,
		RadiantWin:   envelope.RadiantWin,
		LeagueID:     leagueID,
		LeagueName:   strings.TrimSpace(envelope.League.Name),
		LeagueTier:   strings.TrimSpace(envelope.League.Tier),
		SeriesID:     envelope.SeriesID,
		SeriesType:   envelope.SeriesType,
		RadiantScore: envelope.RadiantScore,
		DireScore:    envelope.DireScore,
		GameVersion:  envelope.GameVersion,
		Patch:        envelope.Patch,
		Region:       envelope.Region,
		RadiantTeam:  mapTeamRef(envelope.RadiantTeam),
		DireTeam:     mapTeamRef(envelope.DireTeam),
	}

	out.Players = make([]usecase.ExternalMatchPlayer, 0, len(envelope.Players))
	for _, row := range envelope.Players {
		out.Players = append(out.Players, mapMatchPlayer(row))
	}

	out.DraftTimings = make([]usecase.ExternalDraftTiming, 0, len(envelope.DraftTimings))
	for _, row := range envelope.DraftTimings {
		out.DraftTimings = append(out.DraftTimings, usecase.ExternalDraftTiming{
			Order:          row.Order,
			Pick:           row.Pick,
			ActiveTeam:     row.ActiveTeam,
			HeroID:         row.HeroID,
			PlayerSlot:     row.PlayerSlot,
			ExtraTime:      row.ExtraTime,
			TotalTimeTaken: row.TotalTimeTaken,
		})
	}

	out.TeamFights = make([]usecase.ExternalTeamFight, 0, len(envelope.TeamFights))
	for _, row := range envelope.TeamFights {
		fight := usecase.ExternalTeamFight{
			Start:     row.Start,
			End:       row.End,
			LastDeath: row.LastDeath,
			Deaths:    row.Deaths,
			Players:   make([]usecase.ExternalTeamFightPlayer, 0, len(row.Players)),
		}
		for _, player := range row.Players {
			fight.Players = append(fight.Players, usecase.ExternalTeamFightPlayer{
				Deaths:    player.Deaths,
				Buybacks:  player.Buybacks,
				Damage:    player.Damage,
				Healing:   player.Healing,
				GoldDelta: player.GoldDelta,
				XPDelta:   player.XPDelta,
			})
		}
		out.TeamFights = append(out.TeamFights, fight)
	}

	out.Objectives = make([]usecase.ExternalObjective, 0, len(envelope.Objectives))
	for _, row := range envelope.Objectives {
		out.Objectives = append(out.Objectives, usecase.ExternalObjective{
			Time:       row.Time,
			Type:       strings.TrimSpace(row.Type),
			PlayerSlot: row.PlayerSlot,
			Key:        stringifyObjectiveKey(row.Key),
			Team:       row.Team,
		})
	}

	out.Chat = make([]usecase.ExternalChatEvent, 0, len(envelope.Chat))
	for _, row := range envelope.Chat {
		out.Chat = append(out.Chat, usecase.ExternalChatEvent{
			Time:       row.Time,
			Type:       strings.TrimSpace(row.Type),
			Key:        strings.TrimSpace(row.Key),
			PlayerSlot: row.PlayerSlot,
		})
	}

	return out
}

func mapMatchPlayer(row matchPlayerRow) usecase.ExternalMatchPlayer {
	out := usecase.ExternalMatchPlayer{
		AccountID:   row.AccountID,
		PlayerSlot:  row.PlayerSlot,
		HeroID:      row.HeroID,
		Name:        strings.TrimSpace(row.Name),
		PersonaName: strings.TrimSpace(row.PersonaName),
		CountryCode: strings.TrimSpace(row.CountryCode),
		Kills:       row.Kills,
		Deaths:      row.Deaths,
		Assists:     row.Assists,
		LastHits:    row.LastHits,
		Denies:      row.Denies,
		GoldPerMin:  row.GoldPerMin,
		XPPerMin:    row.XPPerMin,
		Level:       row.Level,
		NetWorth:    row.NetWorth,
		HeroDamage:  row.HeroDamage,
		TowerDamage: row.TowerDamage,
		HeroHealing: row.HeroHealing,
		ObsPlaced:   row.ObsPlaced,
		SenPlaced:   row.SenPlaced,
		Stuns:       row.Stuns,
		Teamfight:   row.Teamfight,
		Lane:        row.Lane,
		LaneRole:    row.LaneRole,
		Times:       row.Times,
		GoldT:       row.GoldT,
		LhT:         row.LhT,
		DnT:         row.DnT,
		XpT:         row.XpT,
	}
	if len(row.Benchmarks) > 0 {
		out.Benchmarks = make(map[string]usecase.ExternalBenchmark, len(row.Benchmarks))
		for key, bench := range row.Benchmarks {
			out.Benchmarks[key] = usecase.ExternalBenchmark{
				Raw: bench.Raw,
				Pct: bench.Pct,
			}
		}
	}
	return out
}

func mapTeamRef(row teamRef) usecase.ExternalTeam {
	return usecase.ExternalTeam{
		TeamID:  row.TeamID,
		Name:    strings.TrimSpace(row.Name),
		Tag:     strings.TrimSpace(row.Tag),
		LogoURL: strings.TrimSpace(row.LogoURL),
	}
}

func stringifyObjectiveKey(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func parseRetryAfter(raw string, maxDelay time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	delay := time.Duration(seconds) * time.Second
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	value = apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
	return value
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrTransient) || stderrors.Is(err, ErrRateLimited)
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_key") {
		query.Set("api_key", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
