package services

import "github.com/fschubi/shutterpilot/internal/models"

// TabSchema lists the visible fields of one form tab. Boolean fields are
// tracked separately: an unchecked checkbox is absent from submitted form
// data and must still be written into the draft as an explicit false.
type TabSchema struct {
	Fields   []string
	Booleans []string
}

var profileTabSchemas = map[string]TabSchema{
	models.TabBasic: {
		Fields: []string{
			"name", "cover_entity_id", "area",
			"day_position", "night_position", "vent_position",
			"intermediate_position",
			"up_time", "down_time", "intermediate_time",
		},
	},
	models.TabSensors: {
		Fields: []string{
			"window_sensor", "door_sensor", "lux_sensor", "temp_sensor",
			"door_safe_position",
			"lux_threshold", "lux_hysteresis",
			"temp_threshold", "temp_hysteresis",
			"window_open_delay", "window_close_delay", "brightness_end_delay",
		},
	},
	models.TabSun: {
		Fields: []string{
			"azimuth_min", "azimuth_max",
			"heat_protection_enabled", "heat_protection_temp",
			"keep_in_sunprotect", "no_close_in_summer",
		},
		Booleans: []string{
			"heat_protection_enabled", "keep_in_sunprotect", "no_close_in_summer",
		},
	},
	models.TabAdvanced: {
		Fields: []string{
			"cooldown_sec",
			"light_entity", "light_brightness",
			"light_on_shade", "light_on_night",
		},
		Booleans: []string{"light_on_shade", "light_on_night"},
	},
}

var areaTabSchemas = map[string]TabSchema{
	models.TabArea: {
		Fields: []string{
			"area_name", "area_mode",
			"up_time_weekday", "down_time_weekday",
			"up_time_weekend", "down_time_weekend",
			"up_earliest", "up_latest",
			"stagger_delay",
			"brightness_sensor", "brightness_down_lux", "brightness_up_lux",
		},
	},
}

// SchemaFor returns the tab schema for a target kind and tab name.
func SchemaFor(targetKind, tab string) (TabSchema, bool) {
	switch targetKind {
	case models.TargetProfile:
		s, ok := profileTabSchemas[tab]
		return s, ok
	case models.TargetArea:
		s, ok := areaTabSchemas[tab]
		return s, ok
	}
	return TabSchema{}, false
}

// DefaultTab returns the tab an edit dialog opens on.
func DefaultTab(targetKind string) string {
	if targetKind == models.TargetArea {
		return models.TabArea
	}
	return models.TabBasic
}
