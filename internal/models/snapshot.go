package models

// ConfigSnapshot is the configuration as last fetched from (or optimistically
// written to) the backend. It is owned by the sync service and replaced
// wholesale on each successful load; nothing outside the sync service
// mutates it.
type ConfigSnapshot struct {
	EntryID        string          `json:"entry_id"`
	Profiles       []Profile       `json:"profiles"`
	Areas          map[string]Area `json:"areas"`
	GlobalSettings GlobalSettings  `json:"global_settings"`

	// SourceVersion is an opaque token identifying this snapshot instance.
	SourceVersion string `json:"source_version"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the canonical slices/maps to mutation.
func (s *ConfigSnapshot) Clone() *ConfigSnapshot {
	if s == nil {
		return nil
	}
	out := &ConfigSnapshot{
		EntryID:        s.EntryID,
		Profiles:       make([]Profile, len(s.Profiles)),
		Areas:          make(map[string]Area, len(s.Areas)),
		GlobalSettings: s.GlobalSettings,
		SourceVersion:  s.SourceVersion,
	}
	copy(out.Profiles, s.Profiles)
	for k, v := range s.Areas {
		out.Areas[k] = v
	}
	return out
}

// ProfileByName returns the profile with the given name, or nil.
func (s *ConfigSnapshot) ProfileByName(name string) *Profile {
	for i := range s.Profiles {
		if s.Profiles[i].Name == name {
			return &s.Profiles[i]
		}
	}
	return nil
}
