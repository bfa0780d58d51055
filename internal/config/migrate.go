package config

import (
	"fmt"
)

// Schema history:
//
//	v1: flat recognizer.url, fuzzy settings under typing.
//	v2: recognizer.stream_url/batch_url split, fuzzy promoted to its own
//	    section.
//	v3: modes.resume_phrase renamed to modes.paused_resume_phrase,
//	    ui.sound renamed to ui.audio_feedback.
//
// Migrations run forward only, oldest first, on the raw document before the
// strict schema decode. A file newer than CurrentVersion is rejected rather
// than guessed at.
var migrations = map[int]func(map[string]any){
	1: migrateV1,
	2: migrateV2,
}

func migrate(raw map[string]any) ([]Warning, error) {
	version := rawVersion(raw)
	if version > CurrentVersion {
		return nil, fmt.Errorf("config version %d is newer than this build supports (%d); upgrade voicekey", version, CurrentVersion)
	}
	if version < 1 {
		return nil, fmt.Errorf("config version must be >= 1, got %d", version)
	}

	var warnings []Warning
	for version < CurrentVersion {
		step, ok := migrations[version]
		if !ok {
			return nil, fmt.Errorf("no migration from config version %d", version)
		}
		step(raw)
		version++
	}

	if rawVersion(raw) != CurrentVersion {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config migrated to schema version %d; update the version field to silence this warning", CurrentVersion),
		})
	}
	raw["version"] = CurrentVersion
	return warnings, nil
}

// rawVersion reads the version field from the undecoded document. A missing
// field means a pre-versioning v1 file.
func rawVersion(raw map[string]any) int {
	switch v := raw["version"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}

// migrateV1 splits the single recognizer endpoint and hoists fuzzy matching
// out of the typing section.
func migrateV1(raw map[string]any) {
	if rec, ok := raw["recognizer"].(map[string]any); ok {
		if url, ok := rec["url"]; ok {
			if _, exists := rec["stream_url"]; !exists {
				rec["stream_url"] = url
			}
			delete(rec, "url")
		}
	}

	typing, ok := raw["typing"].(map[string]any)
	if !ok {
		return
	}
	fuzzy, _ := raw["fuzzy"].(map[string]any)
	if enabled, ok := typing["fuzzy_enabled"]; ok {
		if fuzzy == nil {
			fuzzy = map[string]any{}
		}
		fuzzy["enabled"] = enabled
		delete(typing, "fuzzy_enabled")
	}
	if threshold, ok := typing["fuzzy_threshold"]; ok {
		if fuzzy == nil {
			fuzzy = map[string]any{}
		}
		fuzzy["threshold"] = threshold
		delete(typing, "fuzzy_threshold")
	}
	if fuzzy != nil {
		raw["fuzzy"] = fuzzy
	}
}

// migrateV2 renames the paused resume toggle and the audio feedback flag.
func migrateV2(raw map[string]any) {
	if modes, ok := raw["modes"].(map[string]any); ok {
		if v, ok := modes["resume_phrase"]; ok {
			if _, exists := modes["paused_resume_phrase"]; !exists {
				modes["paused_resume_phrase"] = v
			}
			delete(modes, "resume_phrase")
		}
	}
	if ui, ok := raw["ui"].(map[string]any); ok {
		if v, ok := ui["sound"]; ok {
			if _, exists := ui["audio_feedback"]; !exists {
				ui["audio_feedback"] = v
			}
			delete(ui, "sound")
		}
	}
}
