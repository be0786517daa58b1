package models

// GlobalSettings holds the integration-wide defaults and the summer window.
type GlobalSettings struct {
	DefaultVentPosition int    `json:"default_vpos"`
	DefaultCooldown     int    `json:"default_cooldown"`
	SummerStart         string `json:"summer_start"` // "MM-DD"
	SummerEnd           string `json:"summer_end"`   // "MM-DD"

	SunElevationEnd float64 `json:"sun_elevation_end"`
	SunOffsetUp     int     `json:"sun_offset_up"`
	SunOffsetDown   int     `json:"sun_offset_down"`
}

// DefaultGlobalSettings returns the built-in defaults used when the backend
// provides no global_settings section.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		DefaultVentPosition: 30,
		DefaultCooldown:     120,
		SummerStart:         "05-01",
		SummerEnd:           "09-30",
		SunElevationEnd:     3.0,
		SunOffsetUp:         0,
		SunOffsetDown:       0,
	}
}
