package services

import (
	"strings"
	"unicode"

	"github.com/fschubi/shutterpilot/internal/hass"
	"github.com/fschubi/shutterpilot/internal/models"
)

const (
	switchEntityPrefix = "switch.shutterpilot_"
	statusEntityPrefix = "sensor.shutterpilot_"
	statusEntitySuffix = "_status"

	// GlobalSwitchEntity is the integration-wide automation switch.
	GlobalSwitchEntity = "switch.shutterpilot_global_automation"
)

// StatusDeriver computes per-profile runtime state from backend entity
// states. All methods are pure: same inputs always give the same outputs.
type StatusDeriver struct{}

// NewStatusDeriver creates a new status deriver
func NewStatusDeriver() *StatusDeriver {
	return &StatusDeriver{}
}

// SanitizeName converts a profile name into its entity-id safe form:
// lowercase, non-alphanumeric runs collapsed to single underscores,
// leading and trailing underscores stripped. Unicode letters and digits
// are kept, so German profile names keep their umlauts.
func (d *StatusDeriver) SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	safe := b.String()
	for strings.Contains(safe, "__") {
		safe = strings.ReplaceAll(safe, "__", "_")
	}
	return strings.Trim(safe, "_")
}

// SwitchEntityID returns the enable-switch entity id for a profile name
func (d *StatusDeriver) SwitchEntityID(name string) string {
	return switchEntityPrefix + d.SanitizeName(name)
}

// StatusEntityID returns the status-sensor entity id for a profile name
func (d *StatusDeriver) StatusEntityID(name string) string {
	return statusEntityPrefix + d.SanitizeName(name) + statusEntitySuffix
}

// ManagedEntityIDs lists every per-profile entity id the integration owns
// for the given snapshot, in profile order.
func (d *StatusDeriver) ManagedEntityIDs(snap *models.ConfigSnapshot) []string {
	ids := make([]string, 0, 2*len(snap.Profiles))
	for i := range snap.Profiles {
		ids = append(ids, d.SwitchEntityID(snap.Profiles[i].Name))
		ids = append(ids, d.StatusEntityID(snap.Profiles[i].Name))
	}
	return ids
}

// Derive returns a copy of the snapshot with Enabled and Status filled in
// for every profile. A profile whose entities are missing from states gets
// Enabled=false and Status=unknown. The input snapshot is not modified.
func (d *StatusDeriver) Derive(snap *models.ConfigSnapshot, states map[string]hass.EntityState) *models.ConfigSnapshot {
	out := snap.Clone()
	for i := range out.Profiles {
		p := &out.Profiles[i]
		p.Enabled = false
		p.Status = models.ProfileStatusUnknown

		if sw, ok := states[d.SwitchEntityID(p.Name)]; ok {
			p.Enabled = sw.State == "on"
		}
		if st, ok := states[d.StatusEntityID(p.Name)]; ok && st.State != "" {
			p.Status = st.State
		}
	}
	return out
}

// DeriveProfile computes the status update for a single profile from one
// entity state document. The second return is false when the entity does
// not belong to the profile.
func (d *StatusDeriver) DeriveProfile(p *models.Profile, state hass.EntityState) (models.StatusUpdate, bool) {
	upd := models.StatusUpdate{Profile: p.Name, Enabled: p.Enabled, Status: p.Status}
	switch state.EntityID {
	case d.SwitchEntityID(p.Name):
		upd.Enabled = state.State == "on"
		return upd, true
	case d.StatusEntityID(p.Name):
		if state.State != "" {
			upd.Status = state.State
		}
		return upd, true
	}
	return upd, false
}
