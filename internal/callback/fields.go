// Package callback normalizes completion notifications from the external
// music service. The sender's payload schema drifts between versions, so each
// logical field is resolved through an explicit ordered alias list instead of
// ad hoc lookups scattered through the handler.
package callback

import (
	"encoding/json"
	"strconv"
	"strings"
)

var (
	taskIDAliases   = []string{"taskId", "task_id", "id", "requestId"}
	audioURLAliases = []string{"audio_url", "audioUrl"}
	titleAliases    = []string{"title"}
	durationAliases = []string{"duration"}
	imageURLAliases = []string{"image_url", "imageUrl"}
	errorAliases    = []string{"error"}

	// Status values that indicate failure even when no error field is set.
	errorSentinels = map[string]struct{}{
		"error":                 {},
		"failed":                {},
		"failure":               {},
		"generate_audio_failed": {},
		"sensitive_word_error":  {},
	}
)

// firstString resolves the first present, non-empty string value among the
// aliases. Numeric values are accepted and rendered, since some senders quote
// identifiers inconsistently.
func firstString(fields map[string]json.RawMessage, aliases []string) string {
	for _, alias := range aliases {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return ""
}

// firstInt resolves the first alias carrying a usable integer, accepting raw
// numbers, floats, and numeric strings. Fractional seconds round down.
func firstInt(fields map[string]json.RawMessage, aliases []string) int {
	for _, alias := range aliases {
		raw, ok := fields[alias]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return int(f)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return int(f)
			}
		}
	}
	return 0
}

func isErrorSentinel(status string) bool {
	_, ok := errorSentinels[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
