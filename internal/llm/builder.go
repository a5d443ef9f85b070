package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tunetools/tunetools-api/internal/models"
	"github.com/tunetools/tunetools-api/internal/observability"
	"github.com/tunetools/tunetools-api/internal/provider"
)

const (
	systemPrompt = "You are a music producer creating personalized daily songs. " +
		"Generate song specifications in JSON format following YuE music generation guidelines."

	maxPromptArticles   = 3
	maxPromptActivities = 3
)

// Overrides are caller-supplied values that beat both preferences and LLM output
type Overrides struct {
	Genres      []string
	Vocal       string
	Mood        string
	CustomTitle string
}

// SpecBuilder drives the LLM provider chain to produce a validated
// GenerationSpec from the aggregated context.
type SpecBuilder struct {
	chain *provider.Chain[Prompt, *GenerationSpec]
}

// NewSpecBuilder wraps each provider so that parse/validation failures count
// as provider failures and trigger fallback to the next model.
func NewSpecBuilder(providers ...Provider) *SpecBuilder {
	adapters := make([]provider.Adapter[Prompt, *GenerationSpec], 0, len(providers))
	for _, p := range providers {
		p := p
		adapters = append(adapters, provider.AdapterFunc[Prompt, *GenerationSpec]{
			AdapterName: p.Name(),
			Func: func(ctx context.Context, prompt Prompt) (*GenerationSpec, error) {
				raw, err := p.Generate(ctx, prompt)
				if err != nil {
					return nil, err
				}
				spec, err := parseSpec(raw)
				if err != nil {
					return nil, fmt.Errorf("invalid model output: %w", err)
				}
				return spec, nil
			},
		})
	}
	return &SpecBuilder{chain: provider.NewChain("llm", adapters...)}
}

// OnFailure forwards the fallback hook to the underlying chain
func (b *SpecBuilder) OnFailure(fn func(operation, adapter string)) {
	b.chain.OnFailure(fn)
}

// Build generates a validated spec. It returns the spec and the name of the
// provider that produced it; if every provider fails (including on
// validation) the error is a *provider.ExhaustedError.
func (b *SpecBuilder) Build(
	ctx context.Context,
	snap models.ContextSnapshot,
	prefs models.UserPreferencesData,
	overrides Overrides,
) (*GenerationSpec, string, error) {
	prompt := Prompt{
		System: systemPrompt,
		User:   buildSongPrompt(snap, prefs, overrides),
	}

	trace := observability.GetClient().StartTrace(ctx, "daily-song-spec", map[string]interface{}{
		"genres": prefs.MusicGenres,
		"mood":   prefs.MoodPreference,
	})
	defer trace.Finish()

	gen := trace.Generation("spec-builder", nil)
	gen.Input(prompt.User)

	spec, providerName, err := b.chain.Do(ctx, prompt)
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Output(err.Error())
		gen.Finish()
		return nil, "", err
	}

	gen.Output(spec)
	gen.Model(providerName)
	gen.Finish()

	if overrides.CustomTitle != "" {
		spec.Title = overrides.CustomTitle
	}

	return spec, providerName, nil
}

func parseSpec(raw string) (*GenerationSpec, error) {
	var spec GenerationSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Lyrics = FormatLyrics(spec.Lyrics)
	return &spec, nil
}

func buildSongPrompt(snap models.ContextSnapshot, prefs models.UserPreferencesData, overrides Overrides) string {
	weatherSummary := "unknown"
	if snap.Weather != nil {
		weatherSummary = fmt.Sprintf("%s, %.1f°C in %s",
			snap.Weather.WeatherCondition, snap.Weather.TempC, snap.Weather.City)
	}

	var newsLines []string
	for i, article := range snap.News {
		if i >= maxPromptArticles {
			break
		}
		newsLines = append(newsLines, "- "+article.Title)
	}
	newsSummary := strings.Join(newsLines, "\n")
	if newsSummary == "" {
		newsSummary = "No notable headlines"
	}

	var activityLines []string
	for _, activities := range snap.Calendar {
		for _, activity := range activities {
			if len(activityLines) >= maxPromptActivities {
				break
			}
			activityLines = append(activityLines, "- "+activity.Title)
		}
	}
	calendarSummary := strings.Join(activityLines, "\n")
	if calendarSummary == "" {
		calendarSummary = "No scheduled activities"
	}

	genres := prefs.MusicGenres
	if len(overrides.Genres) > 0 {
		genres = overrides.Genres
	}
	vocal := prefs.VocalPreference
	if overrides.Vocal != "" {
		vocal = overrides.Vocal
	}
	mood := prefs.MoodPreference
	if overrides.Mood != "" {
		mood = overrides.Mood
	}

	return fmt.Sprintf(`Create a personalized daily song based on today's context.

CONTEXT:
Weather: %s
Top News:
%s
Schedule:
%s

User Preferences:
- Genres: %s
- Vocal: %s
- Mood: %s

GENERATE (in JSON format):
{
    "genre_tags": "5-component tag string for music generation",
    "lyrics": "Complete lyrics with [verse] and [chorus] sections",
    "title": "Song title (max 50 characters)",
    "description": "One sentence about the song (max 100 characters)"
}

REQUIREMENTS FOR GENRE TAGS:
- Exactly 5 space-separated components covering: genre, instrument, mood, gender, timbre
- Genre tags from: pop, rock, electronic, folk, indie, acoustic, jazz, r&b
- Mood tags: uplifting, energetic, calm, inspiring, melancholic, motivational
- Timbre tags: bright, airy, warm, smooth, powerful
- Gender: male, female, neutral
- Example: "indie-pop acoustic uplifting female warm"

REQUIREMENTS FOR LYRICS:
- Structure: [verse] section followed by [chorus] section
- Verse: Maximum 8 lines
- Chorus: Maximum 6 lines
- Separate sections with a blank line
- Tell a story: weather, news, the user's day, motivation
- Keep language simple and singable

Return ONLY valid JSON, no additional text.`,
		weatherSummary, newsSummary, calendarSummary,
		strings.Join(genres, ", "), vocal, mood)
}
