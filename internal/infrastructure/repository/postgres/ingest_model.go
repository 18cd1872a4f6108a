package postgres

import "time"

type matchInsertModel struct {
	MatchID       int64     `db:"match_id"`
	LeagueID      int64     `db:"league_id"`
	RadiantTeamID int64     `db:"radiant_team_id"`
	DireTeamID    int64     `db:"dire_team_id"`
	StartTime     time.Time `db:"start_time"`
	Duration      int       `db:"duration"`
	RadiantScore  int       `db:"radiant_score"`
	DireScore     int       `db:"dire_score"`
	RadiantWin    bool      `db:"radiant_win"`
	SeriesID      int64     `db:"series_id"`
	SeriesType    int       `db:"series_type"`
	GameVersion   int       `db:"game_version"`
	Patch         int       `db:"patch"`
	Region        int       `db:"region"`
}

type matchTableModel struct {
	MatchID       int64     `db:"match_id"`
	LeagueID      int64     `db:"league_id"`
	RadiantTeamID int64     `db:"radiant_team_id"`
	DireTeamID    int64     `db:"dire_team_id"`
	StartTime     time.Time `db:"start_time"`
	Duration      int       `db:"duration"`
	RadiantScore  int       `db:"radiant_score"`
	DireScore     int       `db:"dire_score"`
	RadiantWin    bool      `db:"radiant_win"`
	SeriesID      int64     `db:"series_id"`
	SeriesType    int       `db:"series_type"`
	GameVersion   int       `db:"game_version"`
	Patch         int       `db:"patch"`
	Region        int       `db:"region"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type playerMetricInsertModel struct {
	MatchID       int64   `db:"match_id"`
	AccountID     int64   `db:"account_id"`
	HeroID        int     `db:"hero_id"`
	PlayerSlot    int     `db:"player_slot"`
	IsRadiant     bool    `db:"is_radiant"`
	Win           bool    `db:"win"`
	Kills         int     `db:"kills"`
	Deaths        int     `db:"deaths"`
	Assists       int     `db:"assists"`
	LastHits      int     `db:"last_hits"`
	Denies        int     `db:"denies"`
	GoldPerMin    int     `db:"gold_per_min"`
	XPPerMin      int     `db:"xp_per_min"`
	Level         int     `db:"level"`
	NetWorth      int     `db:"net_worth"`
	HeroDamage    int     `db:"hero_damage"`
	TowerDamage   int     `db:"tower_damage"`
	HeroHealing   int     `db:"hero_healing"`
	ObsPlaced     int     `db:"obs_placed"`
	SenPlaced     int     `db:"sen_placed"`
	Stuns         float64 `db:"stuns"`
	TeamfightPart float64 `db:"teamfight_participation"`
	Lane          int     `db:"lane"`
	LaneRole      int     `db:"lane_role"`

	BenchGoldPerMinPct  float64 `db:"bench_gold_per_min_pct"`
	BenchXPPerMinPct    float64 `db:"bench_xp_per_min_pct"`
	BenchKillsPerMinPct float64 `db:"bench_kills_per_min_pct"`
	BenchLastHitsPct    float64 `db:"bench_last_hits_pct"`
	BenchHeroDamagePct  float64 `db:"bench_hero_damage_pct"`
	BenchHeroHealingPct float64 `db:"bench_hero_healing_pct"`
	BenchTowerDamagePct float64 `db:"bench_tower_damage_pct"`
}

type playerMetricTableModel struct {
	playerMetricInsertModel

	CreatedAt time.Time `db:"created_at"`
}

type draftTimingInsertModel struct {
	MatchID        int64 `db:"match_id"`
	DraftOrder     int   `db:"draft_order"`
	Pick           bool  `db:"pick"`
	ActiveTeam     int   `db:"active_team"`
	HeroID         int   `db:"hero_id"`
	PlayerSlot     int   `db:"player_slot"`
	ExtraTime      int   `db:"extra_time"`
	TotalTimeTaken int   `db:"total_time_taken"`
}

type teamFightInsertModel struct {
	MatchID    int64 `db:"match_id"`
	FightIndex int   `db:"fight_index"`
	StartTick  int   `db:"start_tick"`
	EndTick    int   `db:"end_tick"`
	LastDeath  int   `db:"last_death"`
	Deaths     int   `db:"deaths"`
}

type teamFightPlayerInsertModel struct {
	MatchID    int64 `db:"match_id"`
	FightIndex int   `db:"fight_index"`
	AccountID  int64 `db:"account_id"`
	PlayerSlot int   `db:"player_slot"`
	Deaths     int   `db:"deaths"`
	Buybacks   int   `db:"buybacks"`
	Damage     int   `db:"damage"`
	Healing    int   `db:"healing"`
	GoldDelta  int   `db:"gold_delta"`
	XPDelta    int   `db:"xp_delta"`
}

type objectiveInsertModel struct {
	MatchID    int64  `db:"match_id"`
	Seq        int    `db:"seq"`
	EventTime  int    `db:"event_time"`
	EventType  string `db:"event_type"`
	PlayerSlot int    `db:"player_slot"`
	EventKey   string `db:"event_key"`
	Team       int    `db:"team"`
}

type chatWheelInsertModel struct {
	MatchID    int64  `db:"match_id"`
	Seq        int    `db:"seq"`
	EventTime  int    `db:"event_time"`
	PlayerSlot int    `db:"player_slot"`
	EventKey   string `db:"event_key"`
}

type timeSeriesInsertModel struct {
	MatchID    int64  `db:"match_id"`
	AccountID  int64  `db:"account_id"`
	TimeOffset int    `db:"time_offset"`
	MetricKind string `db:"metric_kind"`
	Value      int    `db:"value"`
}

type leagueInsertModel struct {
	LeagueID int64  `db:"league_id"`
	Name     string `db:"name"`
	Tier     string `db:"tier"`
}

type leagueTableModel struct {
	LeagueID  int64     `db:"league_id"`
	Name      string    `db:"name"`
	Tier      string    `db:"tier"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	TeamID  int64   `db:"team_id"`
	Name    string  `db:"name"`
	Tag     string  `db:"tag"`
	LogoURL string  `db:"logo_url"`
	Rating  float64 `db:"rating"`
	Wins    int     `db:"wins"`
	Losses  int     `db:"losses"`
}

type teamTableModel struct {
	TeamID    int64     `db:"team_id"`
	Name      string    `db:"name"`
	Tag       string    `db:"tag"`
	LogoURL   string    `db:"logo_url"`
	Rating    float64   `db:"rating"`
	Wins      int       `db:"wins"`
	Losses    int       `db:"losses"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type playerInsertModel struct {
	AccountID   int64  `db:"account_id"`
	Name        string `db:"name"`
	PersonaName string `db:"persona_name"`
	CountryCode string `db:"country_code"`
	TeamID      int64  `db:"team_id"`
}

type playerTableModel struct {
	AccountID   int64     `db:"account_id"`
	Name        string    `db:"name"`
	PersonaName string    `db:"persona_name"`
	CountryCode string    `db:"country_code"`
	TeamID      int64     `db:"team_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type heroInsertModel struct {
	HeroID        int    `db:"hero_id"`
	Name          string `db:"name"`
	LocalizedName string `db:"localized_name"`
	PrimaryAttr   string `db:"primary_attr"`
	AttackType    string `db:"attack_type"`
	RolesJSON     string `db:"roles"`
}

type heroTableModel struct {
	HeroID        int       `db:"hero_id"`
	Name          string    `db:"name"`
	LocalizedName string    `db:"localized_name"`
	PrimaryAttr   string    `db:"primary_attr"`
	AttackType    string    `db:"attack_type"`
	RolesJSON     string    `db:"roles"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type checkpointTableModel struct {
	ID          int       `db:"id"`
	LastMatchID int64     `db:"last_match_id"`
	UpdatedAt   time.Time `db:"updated_at"`
}
