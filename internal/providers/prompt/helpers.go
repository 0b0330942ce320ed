package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	staticProviderName = "static"
	openAIProviderName = "openai"
)

type modelComposePayload struct {
	Prompt   string            `json:"prompt"`
	Title    string            `json:"title"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

func buildComposePayload(req ComposeRequest) string {
	arrangement := "with vocals"
	if req.Instrumental {
		arrangement = "instrumental only"
	}
	sb := &strings.Builder{}
	sb.WriteString("You are a music production prompt expert. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"prompt":string,"title":string,"tags":string[],"metadata":{"genre":string}}`)
	fmt.Fprintf(sb, ". The prompt field must describe a complete track for a text-to-music model: mood, genre, instrumentation, tempo. Input details: mood=%q, genre=%q, arrangement=%q, duration_seconds=%d. Keep the prompt under 400 characters and the title under 60.", req.Mood, req.Genre, arrangement, req.DurationSeconds)
	return sb.String()
}

func normalizeTags(tags []string, fallback string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tagLower := strings.ToLower(tag)
		if _, ok := seen[tagLower]; ok {
			continue
		}
		seen[tagLower] = struct{}{}
		result = append(result, tag)
	}
	if len(result) == 0 && fallback != "" {
		result = []string{fallback}
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
