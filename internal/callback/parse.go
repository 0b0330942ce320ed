package callback

import (
	"encoding/json"
	"errors"

	"server/internal/domain"
)

// ErrNoTaskID marks a payload that cannot be attributed to any task. The
// receiver logs and acknowledges these instead of persisting them.
var ErrNoTaskID = errors.New("callback: no task identifier in payload")

// Notification is a parsed inbound completion callback.
type Notification struct {
	TaskID string
	Result domain.CompletionResult
	Raw    []byte
}

// Parse extracts the task identifier and result fields from an arbitrary
// JSON body. Field extraction is best effort; only a missing task identifier
// is an error. Payload fields may sit at the top level or nested one level
// under "data", mirroring the shapes the music service has been observed to
// send.
func Parse(body []byte) (*Notification, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, ErrNoTaskID
	}

	// Nested fields fill gaps but never shadow top-level values.
	if rawData, ok := fields["data"]; ok {
		nested := map[string]json.RawMessage{}
		if err := json.Unmarshal(rawData, &nested); err == nil {
			for key, value := range nested {
				if _, exists := fields[key]; !exists {
					fields[key] = value
				}
			}
		}
	}

	taskID := firstString(fields, taskIDAliases)
	if taskID == "" {
		return nil, ErrNoTaskID
	}

	result := domain.CompletionResult{
		AudioURL:        firstString(fields, audioURLAliases),
		Title:           firstString(fields, titleAliases),
		DurationSeconds: firstInt(fields, durationAliases),
		ImageURL:        firstString(fields, imageURLAliases),
		ErrorMessage:    firstString(fields, errorAliases),
	}

	if result.ErrorMessage == "" && result.AudioURL == "" {
		if status := firstString(fields, []string{"status"}); isErrorSentinel(status) {
			result.ErrorMessage = "generation failed: " + status
		}
	}

	raw := make([]byte, len(body))
	copy(raw, body)
	return &Notification{TaskID: taskID, Result: result, Raw: raw}, nil
}
