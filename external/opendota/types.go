package opendota

type proMatchRow struct {
	MatchID       int64  `json:"match_id"`
	Duration      int    `json:"duration"`
	StartTime     int64  `json:"start_time"`
	RadiantTeamID int64  `json:"radiant_team_id"`
	RadiantName   string `json:"radiant_name"`
	DireTeamID    int64  `json:"dire_team_id"`
	DireName      string `json:"dire_name"`
	LeagueID      int64  `json:"leagueid"`
	LeagueName    string `json:"league_name"`
	SeriesID      int64  `json:"series_id"`
	SeriesType    int    `json:"series_type"`
	RadiantScore  int    `json:"radiant_score"`
	DireScore     int    `json:"dire_score"`
	RadiantWin    bool   `json:"radiant_win"`
}

type teamMatchRow struct {
	MatchID        int64 `json:"match_id"`
	StartTime      int64 `json:"start_time"`
	Duration       int   `json:"duration"`
	LeagueID       int64 `json:"leagueid"`
	RadiantWin     bool  `json:"radiant_win"`
	Radiant        bool  `json:"radiant"`
	OpposingTeamID int64 `json:"opposing_team_id"`
}

type matchDetailEnvelope struct {
	MatchID    *int64 `json:"match_id"`
	StartTime  *int64 `json:"start_time"`
	Duration   *int   `json:"duration"`
	RadiantWin *bool  `json:"radiant_win"`

	LeagueID     int64     `json:"leagueid"`
	League       leagueRef `json:"league"`
	SeriesID     int64     `json:"series_id"`
	SeriesType   int       `json:"series_type"`
	RadiantScore int       `json:"radiant_score"`
	DireScore    int       `json:"dire_score"`
	GameVersion  int       `json:"version"`
	Patch        int       `json:"patch"`
	Region       int       `json:"region"`

	RadiantTeam teamRef `json:"radiant_team"`
	DireTeam    teamRef `json:"dire_team"`

	Players      []matchPlayerRow `json:"players"`
	DraftTimings []draftTimingRow `json:"draft_timings"`
	TeamFights   []teamFightRow   `json:"teamfights"`
	Objectives   []objectiveRow   `json:"objectives"`
	Chat         []chatRow        `json:"chat"`
}

type matchPlayerRow struct {
	AccountID   int64  `json:"account_id"`
	PlayerSlot  *int   `json:"player_slot"`
	HeroID      int    `json:"hero_id"`
	Name        string `json:"name"`
	PersonaName string `json:"personaname"`
	CountryCode string `json:"loccountrycode"`

	Kills       int     `json:"kills"`
	Deaths      int     `json:"deaths"`
	Assists     int     `json:"assists"`
	LastHits    int     `json:"last_hits"`
	Denies      int     `json:"denies"`
	GoldPerMin  int     `json:"gold_per_min"`
	XPPerMin    int     `json:"xp_per_min"`
	Level       int     `json:"level"`
	NetWorth    int     `json:"net_worth"`
	HeroDamage  int     `json:"hero_damage"`
	TowerDamage int     `json:"tower_damage"`
	HeroHealing int     `json:"hero_healing"`
	ObsPlaced   int     `json:"obs_placed"`
	SenPlaced   int     `json:"sen_placed"`
	Stuns       float64 `json:"stuns"`
	Teamfight   float64 `json:"teamfight_participation"`
	Lane        int     `json:"lane"`
	LaneRole    int     `json:"lane_role"`

	Times []int `json:"times"`
	GoldT []int `json:"gold_t"`
	LhT   []int `json:"lh_t"`
	DnT   []int `json:"dn_t"`
	XpT   []int `json:"xp_t"`

	Benchmarks map[string]benchmarkRow `json:"benchmarks"`
}

type benchmarkRow struct {
	Raw *float64 `json:"raw"`
	Pct *float64 `json:"pct"`
}

type draftTimingRow struct {
	Order          int  `json:"order"`
	Pick           bool `json:"pick"`
	ActiveTeam     int  `json:"active_team"`
	HeroID         int  `json:"hero_id"`
	PlayerSlot     int  `json:"player_slot"`
	ExtraTime      int  `json:"extra_time_remaining"`
	TotalTimeTaken int  `json:"total_time_taken"`
}

type teamFightRow struct {
	Start     int                  `json:"start"`
	End       int                  `json:"end"`
	LastDeath int                  `json:"last_death"`
	Deaths    int                  `json:"deaths"`
	Players   []teamFightPlayerRow `json:"players"`
}

type teamFightPlayerRow struct {
	Deaths    int `json:"deaths"`
	Buybacks  int `json:"buybacks"`
	Damage    int `json:"damage"`
	Healing   int `json:"healing"`
	GoldDelta int `json:"gold_delta"`
	XPDelta   int `json:"xp_delta"`
}

// Objective key is a string for most events but a numeric building id
// for tower and barracks kills; it is stringified during mapping.
type objectiveRow struct {
	Time       int    `json:"time"`
	Type       string `json:"type"`
	PlayerSlot int    `json:"player_slot"`
	Key        any    `json:"key"`
	Team       int    `json:"team"`
}

type chatRow struct {
	Time       int    `json:"time"`
	Type       string `json:"type"`
	Key        string `json:"key"`
	PlayerSlot int    `json:"player_slot"`
}

type teamRef struct {
	TeamID  int64  `json:"team_id"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	LogoURL string `json:"logo_url"`
}

type teamRow struct {
	TeamID  int64   `json:"team_id"`
	Rating  float64 `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Name    string  `json:"name"`
	Tag     string  `json:"tag"`
	LogoURL string  `json:"logo_url"`
}

type leagueRef struct {
	LeagueID int64  `json:"leagueid"`
	Name     string `json:"name"`
	Tier     string `json:"tier"`
}

type heroRow struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	LocalizedName string   `json:"localized_name"`
	PrimaryAttr   string   `json:"primary_attr"`
	AttackType    string   `json:"attack_type"`
	Roles         []string `json:"roles"`
}
