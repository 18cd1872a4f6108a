package team

import "fmt"

// Team is a professional Dota organization.
type Team struct {
	TeamID  int64
	Name    string
	Tag     string
	LogoURL string
	Rating  float64
	Wins    int
	Losses  int
}

func (t Team) Validate() error {
	if t.TeamID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// Stats are aggregates computed over a team's stored matches.
type Stats struct {
	TeamID       int64
	MatchCount   int
	Wins         int
	Losses       int
	AvgDuration  float64
	RadiantGames int
	RadiantWins  int
}
