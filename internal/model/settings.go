package model

const (
	DefaultWorkMinutes       = 25
	DefaultBreakMinutes      = 5
	DefaultLongBreakMinutes  = 15
	DefaultLongBreakInterval = 4
)

// DefaultPalette is the color pool drawn from when labels are created
// without an explicit color (for example during CSV import).
var DefaultPalette = []string{
	"#e74c3c", "#e67e22", "#f1c40f", "#2ecc71",
	"#1abc9c", "#3498db", "#9b59b6", "#95a5a6",
}

type AlarmConfig struct {
	Sound     string `json:"sound"`
	Repeat    int    `json:"repeat"`
	Volume    int    `json:"volume"`
	Vibration bool   `json:"vibration"`
}

// Settings is the single versioned settings document for one profile. It is
// always replaced wholesale after a merge, never partially written.
type Settings struct {
	WorkMinutes       int         `json:"workMinutes"`
	BreakMinutes      int         `json:"breakMinutes"`
	LongBreakMinutes  int         `json:"longBreakMinutes"`
	LongBreakInterval int         `json:"longBreakInterval"`
	AutoContinue      bool        `json:"autoContinue"`
	WorkPresets       []int       `json:"workPresets"`
	RestPresets       []int       `json:"restPresets"`
	Theme             string      `json:"theme"`
	Language          string      `json:"language"`
	Alarm             AlarmConfig `json:"alarm"`
	Labels            []Label     `json:"labels"`
	ActiveLabel       string      `json:"activeLabel,omitempty"`
	Palette           []string    `json:"palette"`
	CustomMessage     string      `json:"customMessage,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkMinutes:       DefaultWorkMinutes,
		BreakMinutes:      DefaultBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		LongBreakInterval: DefaultLongBreakInterval,
		WorkPresets:       []int{15, 25, 50, 90},
		RestPresets:       []int{5, 10, 15},
		Theme:             "light",
		Language:          "en",
		Alarm:             AlarmConfig{Sound: "bell", Repeat: 1, Volume: 80},
		Palette:           append([]string(nil), DefaultPalette...),
	}
}

// LabelByID returns the label with the given id, or false when the id is
// empty or dangling.
func (s Settings) LabelByID(id string) (Label, bool) {
	if id == "" {
		return Label{}, false
	}
	for _, l := range s.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return Label{}, false
}

// WorkSeconds resolves the effective work duration: the active label's
// override when set, the global work duration otherwise.
func (s Settings) WorkSeconds() int {
	if l, ok := s.LabelByID(s.ActiveLabel); ok && l.DurationMinutes > 0 {
		return l.DurationMinutes * 60
	}
	return s.WorkMinutes * 60
}

func (s Settings) BreakSeconds() int     { return s.BreakMinutes * 60 }
func (s Settings) LongBreakSeconds() int { return s.LongBreakMinutes * 60 }
