package modes

import "github.com/mcdev12/wordquest/go/internal/models"

// Mode describes one game variant on the mode-select and pre-game screens.
type Mode struct {
	ID              models.ModeID `yaml:"id" json:"id"`
	Name            string        `yaml:"name" json:"name"`
	DescriptionThai string        `yaml:"description_thai" json:"description_thai"`
	DescriptionEng  string        `yaml:"description_eng" json:"description_eng"`
	Color           string        `yaml:"color" json:"color"`
	Steps           []Step        `yaml:"steps" json:"steps"`

	EntryPath string `yaml:"-" json:"entry_path"`
}

// Step is one how-to-play instruction.
type Step struct {
	Number      int    `yaml:"-" json:"step_number"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// ListResponse is the JSON body of GET /api/modes.
type ListResponse struct {
	Modes        []Mode           `json:"modes"`
	DefaultStyle models.GameStyle `json:"default_style"`
}
