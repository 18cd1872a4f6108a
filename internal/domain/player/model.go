package player

import (
	"fmt"
	"strconv"
)

// Player is a professional player identity keyed by Steam account id.
type Player struct {
	AccountID   int64
	Name        string
	PersonaName string
	CountryCode string
	TeamID      int64
}

func (p Player) Validate() error {
	if p.AccountID <= 0 {
		return fmt.Errorf("player account id is required")
	}

	return nil
}

// DisplayName resolves the preferred label: pro name, then persona name,
// then a placeholder derived from the account id.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.PersonaName != "" {
		return p.PersonaName
	}
	return "Player " + strconv.FormatInt(p.AccountID, 10)
}
