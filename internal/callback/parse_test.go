package callback

import (
	"errors"
	"testing"
)

func TestParseCompletedPayload(t *testing.T) {
	body := []byte(`{"taskId":"abc123","audio_url":"https://cdn.example.com/x.mp3","title":"Calm","duration":32,"image_url":"https://cdn.example.com/x.png"}`)
	n, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if n.TaskID != "abc123" {
		t.Fatalf("task id mismatch: %q", n.TaskID)
	}
	if n.Result.AudioURL != "https://cdn.example.com/x.mp3" {
		t.Fatalf("audio url mismatch: %q", n.Result.AudioURL)
	}
	if n.Result.Title != "Calm" || n.Result.DurationSeconds != 32 {
		t.Fatalf("metadata mismatch: %+v", n.Result)
	}
	if n.Result.Failed() {
		t.Fatalf("payload with audio must not be failed")
	}
}

func TestParseTaskIDAliasOrder(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"snake_case", `{"task_id":"t1"}`, "t1"},
		{"bare_id", `{"id":"t2"}`, "t2"},
		{"request_id", `{"requestId":"t3"}`, "t3"},
		{"camel_wins_over_snake", `{"taskId":"camel","task_id":"snake"}`, "camel"},
		{"numeric_id", `{"id":42}`, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse([]byte(tc.body))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if n.TaskID != tc.want {
				t.Fatalf("task id mismatch: got %q want %q", n.TaskID, tc.want)
			}
		})
	}
}

func TestParseCamelCaseAssetFields(t *testing.T) {
	body := []byte(`{"taskId":"abc123","audioUrl":"https://cdn.example.com/y.mp3","imageUrl":"https://cdn.example.com/y.png","duration":"45.5"}`)
	n, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if n.Result.AudioURL != "https://cdn.example.com/y.mp3" {
		t.Fatalf("audio url mismatch: %q", n.Result.AudioURL)
	}
	if n.Result.ImageURL != "https://cdn.example.com/y.png" {
		t.Fatalf("image url mismatch: %q", n.Result.ImageURL)
	}
	if n.Result.DurationSeconds != 45 {
		t.Fatalf("duration mismatch: %d", n.Result.DurationSeconds)
	}
}

func TestParseNestedDataObject(t *testing.T) {
	body := []byte(`{"taskId":"abc123","data":{"audio_url":"https://cdn.example.com/z.mp3","title":"Nested"}}`)
	n, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if n.Result.AudioURL != "https://cdn.example.com/z.mp3" || n.Result.Title != "Nested" {
		t.Fatalf("nested fields not resolved: %+v", n.Result)
	}
}

func TestParseErrorField(t *testing.T) {
	n, err := Parse([]byte(`{"taskId":"abc123","error":"render failed"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !n.Result.Failed() {
		t.Fatalf("error payload must be failed")
	}
	if n.Result.ErrorMessage != "render failed" {
		t.Fatalf("error message mismatch: %q", n.Result.ErrorMessage)
	}
}

func TestParseErrorSentinelStatus(t *testing.T) {
	n, err := Parse([]byte(`{"taskId":"abc123","status":"FAILED"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !n.Result.Failed() {
		t.Fatalf("sentinel status must mark the result failed")
	}
	if n.Result.ErrorMessage == "" {
		t.Fatalf("sentinel status must carry an error message")
	}
}

func TestParseStatusIgnoredWhenAudioPresent(t *testing.T) {
	n, err := Parse([]byte(`{"taskId":"abc123","status":"failed","audio_url":"https://cdn.example.com/x.mp3"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if n.Result.Failed() {
		t.Fatalf("payload with audio url must win over stale status")
	}
}

func TestParseMissingTaskID(t *testing.T) {
	for _, body := range []string{`{}`, `{"audio_url":"https://cdn.example.com/x.mp3"}`, `not json`, `[]`} {
		if _, err := Parse([]byte(body)); !errors.Is(err, ErrNoTaskID) {
			t.Fatalf("body %q: got err %v, want ErrNoTaskID", body, err)
		}
	}
}

func TestParseRetainsRawPayload(t *testing.T) {
	body := []byte(`{"taskId":"abc123","extra":{"deep":true}}`)
	n, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if string(n.Raw) != string(body) {
		t.Fatalf("raw payload not retained")
	}
}
