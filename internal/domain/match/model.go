package match

import "time"

const (
	// Player slots 0-127 belong to the Radiant side, 128-255 to Dire.
	radiantSlotBound = 128

	MetricGold     = "gold"
	MetricLastHits = "last_hits"
	MetricDenies   = "denies"
	MetricXP       = "xp"
)

// Match is one completed professional game.
type Match struct {
	MatchID       int64
	LeagueID      int64
	RadiantTeamID int64
	DireTeamID    int64
	StartTime     time.Time
	Duration      int
	RadiantScore  int
	DireScore     int
	RadiantWin    bool
	SeriesID      int64
	SeriesType    int
	GameVersion   int
	Patch         int
	Region        int
}

// PlayerMetric is one player's performance row for one match.
type PlayerMetric struct {
	MatchID       int64
	AccountID     int64
	HeroID        int
	PlayerSlot    int
	IsRadiant     bool
	Win           bool
	Kills         int
	Deaths        int
	Assists       int
	LastHits      int
	Denies        int
	GoldPerMin    int
	XPPerMin      int
	Level         int
	NetWorth      int
	HeroDamage    int
	TowerDamage   int
	HeroHealing   int
	ObsPlaced     int
	SenPlaced     int
	Stuns         float64
	TeamfightPart float64
	Lane          int
	LaneRole      int

	BenchGoldPerMinPct  float64
	BenchXPPerMinPct    float64
	BenchKillsPerMinPct float64
	BenchLastHitsPct    float64
	BenchHeroDamagePct  float64
	BenchHeroHealingPct float64
	BenchTowerDamagePct float64
}

// KDA is (kills + assists) / max(deaths, 1). Derived, never stored.
func (m PlayerMetric) KDA() float64 {
	deaths := m.Deaths
	if deaths < 1 {
		deaths = 1
	}
	return float64(m.Kills+m.Assists) / float64(deaths)
}

// IsRadiantSlot reports whether a raw player slot belongs to the Radiant side.
func IsRadiantSlot(slot int) bool {
	return slot < radiantSlotBound
}

type DraftTiming struct {
	MatchID        int64
	DraftOrder     int
	Pick           bool
	ActiveTeam     int
	HeroID         int
	PlayerSlot     int
	ExtraTime      int
	TotalTimeTaken int
}

type TeamFight struct {
	MatchID    int64
	FightIndex int
	Start      int
	End        int
	LastDeath  int
	Deaths     int
}

type TeamFightPlayer struct {
	MatchID    int64
	FightIndex int
	AccountID  int64
	PlayerSlot int
	Deaths     int
	Buybacks   int
	Damage     int
	Healing    int
	GoldDelta  int
	XPDelta    int
}

type Objective struct {
	MatchID    int64
	Seq        int
	Time       int
	Type       string
	PlayerSlot int
	Key        string
	Team       int
}

type ChatWheelEvent struct {
	MatchID    int64
	Seq        int
	Time       int
	PlayerSlot int
	Key        string
}

// TimeSeriesSnapshot is one per-player metric sample at a fixed offset
// into the match, built from the minute-resolution arrays.
type TimeSeriesSnapshot struct {
	MatchID    int64
	AccountID  int64
	TimeOffset int
	MetricKind string
	Value      int
}

// RecordSet is everything extracted from one match document. It is the
// unit of commit: either all rows land or none do.
type RecordSet struct {
	Match            Match
	LeagueID         int64
	LeagueName       string
	LeagueTier       string
	Teams            []TeamRef
	Players          []PlayerRef
	Heroes           []HeroRef
	PlayerMetrics    []PlayerMetric
	DraftTimings     []DraftTiming
	TeamFights       []TeamFight
	TeamFightPlayers []TeamFightPlayer
	Objectives       []Objective
	ChatWheelEvents  []ChatWheelEvent
	TimeSeries       []TimeSeriesSnapshot
}

// TeamRef carries the team identity fields present on a match document,
// plus the skill fields filled in from the team detail endpoint.
type TeamRef struct {
	TeamID  int64
	Name    string
	Tag     string
	LogoURL string
	Rating  float64
	Wins    int
	Losses  int
}

// PlayerRef carries the player identity fields present on a match document.
type PlayerRef struct {
	AccountID   int64
	Name        string
	PersonaName string
	CountryCode string
	TeamID      int64
}

// HeroRef is the minimal hero identity referenced by a match. Full hero
// rows come from the catalog sync; these only guarantee FK targets exist.
type HeroRef struct {
	HeroID int
	Name   string
}
