package usecase

import "context"

// MatchProvider is the upstream match-data API boundary. Implementations
// own rate limiting and retry; callers see either data or a final error.
type MatchProvider interface {
	FetchProMatches(ctx context.Context, limit int, lessThanMatchID int64) ([]ExternalMatchSummary, error)
	FetchMatchDetail(ctx context.Context, matchID int64) (ExternalMatchDetail, error)
	FetchTeamMatches(ctx context.Context, teamID int64) ([]ExternalMatchSummary, error)
	FetchTeam(ctx context.Context, teamID int64) (ExternalTeam, error)
	FetchLeagues(ctx context.Context) ([]ExternalLeague, error)
	FetchHeroes(ctx context.Context) ([]ExternalHero, error)
}

// ExternalMatchSummary is one row from a match listing endpoint.
type ExternalMatchSummary struct {
	MatchID       int64
	StartTime     int64
	Duration      int
	LeagueID      int64
	LeagueName    string
	RadiantTeamID int64
	RadiantName   string
	DireTeamID    int64
	DireName      string
	RadiantScore  int
	DireScore     int
	RadiantWin    bool
	SeriesID      int64
	SeriesType    int
}

// ExternalMatchDetail is the full match document. The four core fields
// are pointers so an absent value is distinguishable from a zero; the
// normalizer rejects documents where any of them is missing.
type ExternalMatchDetail struct {
	MatchID    *int64 `validate:"required"`
	StartTime  *int64 `validate:"required"`
	Duration   *int   `validate:"required"`
	RadiantWin *bool  `validate:"required"`

	LeagueID     int64
	LeagueName   string
	LeagueTier   string
	SeriesID     int64
	SeriesType   int
	RadiantScore int
	DireScore    int
	GameVersion  int
	Patch        int
	Region       int

	RadiantTeam ExternalTeam
	DireTeam    ExternalTeam

	Players      []ExternalMatchPlayer
	DraftTimings []ExternalDraftTiming
	TeamFights   []ExternalTeamFight
	Objectives   []ExternalObjective
	Chat         []ExternalChatEvent
}

type ExternalMatchPlayer struct {
	AccountID   int64
	PlayerSlot  *int
	HeroID      int
	Name        string
	PersonaName string
	CountryCode string

	Kills       int
	Deaths      int
	Assists     int
	LastHits    int
	Denies      int
	GoldPerMin  int
	XPPerMin    int
	Level       int
	NetWorth    int
	HeroDamage  int
	TowerDamage int
	HeroHealing int
	ObsPlaced   int
	SenPlaced   int
	Stuns       float64
	Teamfight   float64
	Lane        int
	LaneRole    int

	Times []int
	GoldT []int
	LhT   []int
	DnT   []int
	XpT   []int

	Benchmarks map[string]ExternalBenchmark
}

type ExternalBenchmark struct {
	Raw *float64
	Pct *float64
}

type ExternalDraftTiming struct {
	Order          int
	Pick           bool
	ActiveTeam     int
	HeroID         int
	PlayerSlot     int
	ExtraTime      int
	TotalTimeTaken int
}

// ExternalTeamFight players correspond by index to the document's
// players array, matching the upstream wire layout.
type ExternalTeamFight struct {
	Start     int
	End       int
	LastDeath int
	Deaths    int
	Players   []ExternalTeamFightPlayer
}

type ExternalTeamFightPlayer struct {
	Deaths    int
	Buybacks  int
	Damage    int
	Healing   int
	GoldDelta int
	XPDelta   int
}

type ExternalObjective struct {
	Time       int
	Type       string
	PlayerSlot int
	Key        string
	Team       int
}

type ExternalChatEvent struct {
	Time       int
	Type       string
	Key        string
	PlayerSlot int
}

type ExternalTeam struct {
	TeamID  int64
	Name    string
	Tag     string
	LogoURL string
	Rating  float64
	Wins    int
	Losses  int
}

type ExternalLeague struct {
	LeagueID int64
	Name     string
	Tier     string
}

type ExternalHero struct {
	HeroID        int
	Name          string
	LocalizedName string
	PrimaryAttr   string
	AttackType    string
	Roles         []string
}
