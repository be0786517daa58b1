package models

// Area scheduling modes. The mode decides which time fields are applied at
// runtime, but every field is kept on the record regardless of mode.
const (
	ModeTimeOnly   = "time_only"
	ModeSun        = "sun"
	ModeGoldenHour = "golden_hour"
	ModeBrightness = "brightness"
)

// Area is a reusable time template profiles can be assigned to.
type Area struct {
	Name string `json:"area_name"`
	Mode string `json:"area_mode"`

	UpTimeWeekday   string `json:"up_time_weekday,omitempty"`
	DownTimeWeekday string `json:"down_time_weekday,omitempty"`
	UpTimeWeekend   string `json:"up_time_weekend,omitempty"`
	DownTimeWeekend string `json:"down_time_weekend,omitempty"`
	UpEarliest      string `json:"up_earliest,omitempty"`
	UpLatest        string `json:"up_latest,omitempty"`

	// Delay between covers of the same area, seconds.
	StaggerDelay int `json:"stagger_delay"`

	// Brightness mode only
	BrightnessSensor  string  `json:"brightness_sensor,omitempty"`
	BrightnessDownLux float64 `json:"brightness_down_lux"`
	BrightnessUpLux   float64 `json:"brightness_up_lux"`
}

// DefaultAreas returns the built-in area set created when the backend
// provides none.
func DefaultAreas() map[string]Area {
	return map[string]Area{
		"living":   {Name: "Living", Mode: ModeSun},
		"sleeping": {Name: "Sleeping", Mode: ModeSun},
		"children": {Name: "Children", Mode: ModeTimeOnly},
	}
}
