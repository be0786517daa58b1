package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fschubi/shutterpilot/internal/models"
)

// Service writes configuration snapshots to Excel workbooks for offline
// review and backup.
type Service struct {
	exportsDir string
}

// NewExportService creates a new export service instance
func NewExportService(exportsDir string) *Service {
	// Create exports directory if it doesn't exist
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}

	return &Service{exportsDir: exportsDir}
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Success  bool
	Message  string
	Filename string
	Path     string
}

var profileColumns = []string{
	"name", "cover_entity_id", "area", "enabled", "status",
	"day_position", "night_position", "vent_position", "door_safe_position",
	"intermediate_position",
	"window_sensor", "door_sensor", "lux_sensor", "temp_sensor",
	"lux_threshold", "lux_hysteresis", "temp_threshold", "temp_hysteresis",
	"heat_protection_enabled", "heat_protection_temp",
	"up_time", "down_time", "intermediate_time",
	"azimuth_min", "azimuth_max", "cooldown_sec",
	"window_open_delay", "window_close_delay", "brightness_end_delay",
	"keep_in_sunprotect", "no_close_in_summer",
	"light_entity", "light_brightness", "light_on_shade", "light_on_night",
}

var areaColumns = []string{
	"key", "area_name", "area_mode",
	"up_time_weekday", "down_time_weekday",
	"up_time_weekend", "down_time_weekend",
	"up_earliest", "up_latest", "stagger_delay",
	"brightness_sensor", "brightness_down_lux", "brightness_up_lux",
}

// ExportSnapshot writes the snapshot to a new Excel workbook with one sheet
// per configuration section.
func (s *Service) ExportSnapshot(snap *models.ConfigSnapshot) (*ExportResult, error) {
	timestamp := time.Now().Unix()
	filename := fmt.Sprintf("shutterpilot_config_%d.xlsx", timestamp)
	filePath := filepath.Join(s.exportsDir, filename)

	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Profiles sheet
	profileSheet := "Profiles"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, profileSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	for i, col := range profileColumns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(profileSheet, cell, col)
	}
	f.SetCellStyle(profileSheet, "A1", columnToLetter(len(profileColumns))+"1", headerStyle)

	for rowIdx, p := range snap.Profiles {
		row := rowIdx + 2
		values := []interface{}{
			p.Name, p.Cover, p.Area, p.Enabled, p.Status,
			p.DayPosition, p.NightPosition, p.VentPosition, p.DoorSafePosition,
			p.IntermediatePosition,
			p.WindowSensor, p.DoorSensor, p.LuxSensor, p.TempSensor,
			p.LuxThreshold, p.LuxHysteresis, p.TempThreshold, p.TempHysteresis,
			p.HeatProtection, p.HeatProtectionTemp,
			p.UpTime, p.DownTime, p.IntermediateTime,
			p.AzimuthMin, p.AzimuthMax, p.CooldownSec,
			p.WindowOpenDelay, p.WindowCloseDelay, p.BrightnessEndDelay,
			p.KeepInSunprotect, p.NoCloseInSummer,
			p.LightEntity, p.LightBrightness, p.LightOnShade, p.LightOnNight,
		}
		for colIdx, v := range values {
			cell := columnToLetter(colIdx+1) + strconv.Itoa(row)
			f.SetCellValue(profileSheet, cell, v)
		}
	}

	// Areas sheet
	areaSheet := "Areas"
	if _, err := f.NewSheet(areaSheet); err != nil {
		return nil, fmt.Errorf("failed to create areas sheet: %w", err)
	}
	for i, col := range areaColumns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(areaSheet, cell, col)
	}
	f.SetCellStyle(areaSheet, "A1", columnToLetter(len(areaColumns))+"1", headerStyle)

	row := 2
	for key, a := range snap.Areas {
		values := []interface{}{
			key, a.Name, a.Mode,
			a.UpTimeWeekday, a.DownTimeWeekday,
			a.UpTimeWeekend, a.DownTimeWeekend,
			a.UpEarliest, a.UpLatest, a.StaggerDelay,
			a.BrightnessSensor, a.BrightnessDownLux, a.BrightnessUpLux,
		}
		for colIdx, v := range values {
			cell := columnToLetter(colIdx+1) + strconv.Itoa(row)
			f.SetCellValue(areaSheet, cell, v)
		}
		row++
	}

	// Settings sheet, key/value layout
	settingsSheet := "Settings"
	if _, err := f.NewSheet(settingsSheet); err != nil {
		return nil, fmt.Errorf("failed to create settings sheet: %w", err)
	}
	f.SetCellValue(settingsSheet, "A1", "setting")
	f.SetCellValue(settingsSheet, "B1", "value")
	f.SetCellStyle(settingsSheet, "A1", "B1", headerStyle)

	settings := [][2]interface{}{
		{"default_vpos", snap.GlobalSettings.DefaultVentPosition},
		{"default_cooldown", snap.GlobalSettings.DefaultCooldown},
		{"summer_start", snap.GlobalSettings.SummerStart},
		{"summer_end", snap.GlobalSettings.SummerEnd},
		{"sun_elevation_end", snap.GlobalSettings.SunElevationEnd},
		{"sun_offset_up", snap.GlobalSettings.SunOffsetUp},
		{"sun_offset_down", snap.GlobalSettings.SunOffsetDown},
		{"entry_id", snap.EntryID},
		{"source_version", snap.SourceVersion},
	}
	for i, kv := range settings {
		f.SetCellValue(settingsSheet, "A"+strconv.Itoa(i+2), kv[0])
		f.SetCellValue(settingsSheet, "B"+strconv.Itoa(i+2), kv[1])
	}

	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Exported %d profiles and %d areas", len(snap.Profiles), len(snap.Areas)),
		Filename: filename,
		Path:     filePath,
	}, nil
}

// columnToLetter converts a 1-based column index to its Excel letter
func columnToLetter(col int) string {
	letter := ""
	for col > 0 {
		col--
		letter = string(rune('A'+col%26)) + letter
		col /= 26
	}
	return letter
}
