package modes

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/mcdev12/wordquest/go/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed modes.yaml
var defaultCatalog []byte

// GenericMode is shown for an unknown mode id.
var GenericMode = Mode{
	ID:              "default",
	Name:            "Game Mode",
	DescriptionThai: "เล่นเกมเพื่อฝึกคำศัพท์",
	Color:           "gray",
	Steps:           []Step{},
}

// Catalog is an ordered, read-only set of modes.
type Catalog struct {
	modes []Mode
	byID  map[models.ModeID]int
}

type catalogFile struct {
	Modes []Mode `yaml:"modes"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Load parses a YAML catalog. Every mode id must be a playable mode and appear once.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mode catalog: %w", err)
	}

	c := &Catalog{byID: make(map[models.ModeID]int, len(file.Modes))}
	for _, m := range file.Modes {
		if !m.ID.Valid() {
			return nil, fmt.Errorf("unknown mode id %q in catalog", m.ID)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mode id %q in catalog", m.ID)
		}
		for i := range m.Steps {
			m.Steps[i].Number = i + 1
		}
		if m.Steps == nil {
			m.Steps = []Step{}
		}
		m.EntryPath = EntryPath(m.ID)
		c.byID[m.ID] = len(c.modes)
		c.modes = append(c.modes, m)
	}
	return c, nil
}

// All returns the modes in presentation order.
func (c *Catalog) All() []Mode {
	out := make([]Mode, len(c.modes))
	for i, m := range c.modes {
		out[i] = m.clone()
	}
	return out
}

// Get returns the mode for id, or GenericMode and false when it is unknown.
func (c *Catalog) Get(id models.ModeID) (Mode, bool) {
	i, ok := c.byID[id]
	if !ok {
		return GenericMode.clone(), false
	}
	return c.modes[i].clone(), true
}

func (m Mode) clone() Mode {
	m.Steps = slices.Clone(m.Steps)
	return m
}

// EntryPath is where the mode-select screen sends the player. Meaning match has
// its own difficulty screen; the others go straight to the pre-game screen.
func EntryPath(id models.ModeID) string {
	if id == models.ModeMeaningMatch {
		return "/play/" + string(id)
	}
	return "/play/" + string(id) + "/dda"
}

// PlayPath is where the pre-game screen starts the game.
func PlayPath(id models.ModeID, style models.GameStyle) string {
	if !style.Valid() {
		style = models.DefaultGameStyle
	}
	return "/play/" + string(id) + "/dda/play?style=" + string(style)
}
