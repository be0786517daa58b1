package models

// AreaNone is the area assignment for profiles without an area.
const AreaNone = "none"

// Profile represents one shutter automation profile as stored in the
// backend configuration. JSON keys match the integration's option schema.
type Profile struct {
	Name  string `json:"name"`
	Cover string `json:"cover_entity_id"`
	Area  string `json:"area,omitempty"`

	// Optional sensor references
	WindowSensor string `json:"window_sensor,omitempty"`
	DoorSensor   string `json:"door_sensor,omitempty"`
	LuxSensor    string `json:"lux_sensor,omitempty"`
	TempSensor   string `json:"temp_sensor,omitempty"`

	// Positions (0-100)
	DayPosition          int `json:"day_position"`
	NightPosition        int `json:"night_position"`
	VentPosition         int `json:"vent_position"`
	DoorSafePosition     int `json:"door_safe_position"`
	IntermediatePosition int `json:"intermediate_position"`

	// Thresholds and hysteresis
	LuxThreshold       float64 `json:"lux_threshold"`
	TempThreshold      float64 `json:"temp_threshold"`
	LuxHysteresis      int     `json:"lux_hysteresis"`
	TempHysteresis     int     `json:"temp_hysteresis"`
	HeatProtection     bool    `json:"heat_protection_enabled"`
	HeatProtectionTemp float64 `json:"heat_protection_temp"`

	// Schedule overrides ("HH:MM" or empty)
	UpTime           string `json:"up_time,omitempty"`
	DownTime         string `json:"down_time,omitempty"`
	IntermediateTime string `json:"intermediate_time,omitempty"`

	// Sun window (degrees)
	AzimuthMin float64 `json:"azimuth_min"`
	AzimuthMax float64 `json:"azimuth_max"`

	// Delays (seconds; brightness end delay in minutes)
	CooldownSec        int `json:"cooldown_sec"`
	WindowOpenDelay    int `json:"window_open_delay"`
	WindowCloseDelay   int `json:"window_close_delay"`
	BrightnessEndDelay int `json:"brightness_end_delay"`

	// Behavior flags
	KeepInSunprotect bool `json:"keep_in_sunprotect"`
	NoCloseInSummer  bool `json:"no_close_in_summer"`

	// Light automation
	LightEntity     string `json:"light_entity,omitempty"`
	LightBrightness int    `json:"light_brightness"`
	LightOnShade    bool   `json:"light_on_shade"`
	LightOnNight    bool   `json:"light_on_night"`

	// Derived at runtime from live state, never written back.
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

// ProfileStatusUnknown is reported when the profile's status sensor is
// absent from the live state.
const ProfileStatusUnknown = "unknown"

// DerivedProfileFields lists the attribute keys that are computed from live
// state and must never appear in a save payload.
var DerivedProfileFields = []string{"enabled", "status"}
