package hero

import "fmt"

// Hero is a reference-table row from the hero catalog.
type Hero struct {
	HeroID        int
	Name          string
	LocalizedName string
	PrimaryAttr   string
	AttackType    string
	Roles         []string
}

func (h Hero) Validate() error {
	if h.HeroID <= 0 {
		return fmt.Errorf("hero id is required")
	}
	if h.Name == "" {
		return fmt.Errorf("hero name is required")
	}

	return nil
}

// Synthesize builds a minimal placeholder row for a hero id seen on a
// match before the catalog sync has stored it.
func Synthesize(heroID int) Hero {
	return Hero{
		HeroID:        heroID,
		Name:          fmt.Sprintf("npc_dota_hero_%d", heroID),
		LocalizedName: fmt.Sprintf("Hero %d", heroID),
	}
}
