package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-quest/internal/storage"
)

// Area is a named exploration zone, loaded from static asset files.
type Area struct {
	Name       string `json:"name"`
	Safe       bool   `json:"safe"`
	Difficulty int    `json:"difficulty"`
	// EncounterRate is the chance a move check meets a monster. Only the
	// sandbox service reads it.
	EncounterRate float64                          `json:"encounter_rate"`
	Exits         []storage.SmartIdentifier[*Area] `json:"exits"`
	Width         int                              `json:"width"`
	Height        int                              `json:"height"`
}

// Validate satisfies storage.ValidatingSpec.
func (a *Area) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if a.Difficulty < 0 {
		el.Add(fmt.Errorf("difficulty must not be negative"))
	}
	if a.EncounterRate < 0 || a.EncounterRate > 1 {
		el.Add(fmt.Errorf("encounter rate must be between 0 and 1"))
	}
	if a.Safe && a.EncounterRate > 0 {
		el.Add(fmt.Errorf("safe areas cannot have encounters"))
	}
	if a.Width < 0 || a.Height < 0 {
		el.Add(fmt.Errorf("layout size must not be negative"))
	}
	for i, exit := range a.Exits {
		if err := exit.Validate(); err != nil {
			el.Add(fmt.Errorf("exit %d: %w", i, err))
		}
	}

	return el.Err()
}

// Atlas is the resolved, read-only area graph.
type Atlas struct {
	areas map[storage.Identifier]*Area
	hub   storage.Identifier
}

// NewAtlas resolves every area's exits against the store and checks that
// the hub exists and is safe.
func NewAtlas(st storage.Storer[*Area], hub storage.Identifier) (*Atlas, error) {
	areas := st.GetAll()

	el := errors.NewErrorList()
	for id, area := range areas {
		for i := range area.Exits {
			if err := area.Exits[i].Resolve(st); err != nil {
				el.Add(fmt.Errorf("area %s: %w", id, err))
			}
		}
	}

	h, ok := areas[hub]
	switch {
	case !ok:
		el.Add(fmt.Errorf("hub area %q not found", hub))
	case !h.Safe:
		el.Add(fmt.Errorf("hub area %q must be safe", hub))
	}

	if err := el.Err(); err != nil {
		return nil, err
	}

	return &Atlas{areas: areas, hub: hub}, nil
}

// Hub returns the identifier of the safe home area.
func (a *Atlas) Hub() storage.Identifier {
	return a.hub
}

// IsHub reports whether id names the hub.
func (a *Atlas) IsHub(id storage.Identifier) bool {
	return id == a.hub
}

// Area returns the area for id, or nil.
func (a *Atlas) Area(id storage.Identifier) *Area {
	return a.areas[id]
}

// FindExit matches player input against the exits of from, by identifier
// or by display name, case-insensitively.
func (a *Atlas) FindExit(from storage.Identifier, input string) (storage.Identifier, bool) {
	area := a.areas[from]
	if area == nil {
		return "", false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	for _, exit := range area.Exits {
		if strings.ToLower(exit.Id().String()) == input {
			return exit.Id(), true
		}
		if dest := exit.Get(); dest != nil && strings.ToLower(dest.Name) == input {
			return exit.Id(), true
		}
	}
	return "", false
}

// DisplayName returns the area's name, falling back to its identifier.
func (a *Atlas) DisplayName(id storage.Identifier) string {
	if area := a.areas[id]; area != nil {
		return area.Name
	}
	return id.String()
}
