package league

import "fmt"

// League is a professional tournament or circuit.
type League struct {
	LeagueID int64
	Name     string
	Tier     string
}

func (l League) Validate() error {
	if l.LeagueID <= 0 {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}

	return nil
}
