package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComposeRequest carries the listener's mood description and the shape of
// the track to generate.
type ComposeRequest struct {
	Mood            string
	Genre           string
	Instrumental    bool
	DurationSeconds int
}

// ComposeResponse is the generation-ready prompt plus display metadata.
type ComposeResponse struct {
	Prompt   string            `json:"prompt"`
	Title    string            `json:"title"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
	Provider string            `json:"-"`
}

// Composer turns a free-form mood into a prompt the music backend accepts.
type Composer interface {
	Compose(ctx context.Context, req ComposeRequest) (*ComposeResponse, error)
}

// StaticComposer builds a serviceable prompt from templates. It is the
// fallback when no model provider is configured or reachable.
type StaticComposer struct{}

func NewStaticComposer() *StaticComposer {
	return &StaticComposer{}
}

func (s *StaticComposer) Compose(ctx context.Context, req ComposeRequest) (*ComposeResponse, error) {
	c := cases.Title(language.Und)
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		mood = "calm ambient"
	}
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		genre = "ambient"
	}
	arrangement := "with vocals"
	if req.Instrumental {
		arrangement = "instrumental"
	}
	prompt := fmt.Sprintf("A %s %s track, %s, evoking the feeling of %s. Clean mix, steady tempo, suitable for background listening.", genre, arrangement, mood, mood)
	res := &ComposeResponse{
		Prompt: prompt,
		Title:  fmt.Sprintf("%s Mood", c.String(firstWords(mood, 3))),
		Tags:   normalizeTags([]string{genre, mood}, "ambient"),
		Metadata: map[string]string{
			"genre": genre,
		},
		Provider: staticProviderName,
	}
	return res, nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

var _ Composer = (*StaticComposer)(nil)
