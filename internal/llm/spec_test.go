package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLyrics = `[verse]
Morning light on empty streets
Coffee steam and drum machine beats

[chorus]
We keep moving anyway
Through the rain of one more day`

func validSpec() GenerationSpec {
	return GenerationSpec{
		GenreTags:   "indie pop female vocal upbeat",
		Lyrics:      validLyrics,
		Title:       "One More Day",
		Description: "A rainy commute turned anthem",
	}
}

func TestSpecValidateAccepts(t *testing.T) {
	spec := validSpec()
	require.NoError(t, spec.Validate())
}

func TestSpecValidateGenreTagCount(t *testing.T) {
	tests := []struct {
		name      string
		genreTags string
		wantErr   bool
	}{
		{"exactly five", "indie pop female vocal upbeat", false},
		{"four components", "indie pop female vocal", true},
		{"six components", "indie pop female vocal upbeat electronic", true},
		{"empty", "", true},
		{"extra whitespace still five", "  indie  pop   female vocal upbeat ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			spec.GenreTags = tt.genreTags
			err := spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpecValidateSectionLimits(t *testing.T) {
	longVerse := "[verse]\n" + strings.Repeat("line\n", 9) + "\n[chorus]\nshort\n"
	spec := validSpec()
	spec.Lyrics = longVerse
	err := spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verse")

	longChorus := "[verse]\nshort\n\n[chorus]\n" + strings.Repeat("line\n", 7)
	spec = validSpec()
	spec.Lyrics = longChorus
	err = spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chorus")
}

func TestSpecValidateRequiredSections(t *testing.T) {
	spec := validSpec()
	spec.Lyrics = "[verse]\nonly a verse here"
	assert.Error(t, spec.Validate())

	spec.Lyrics = "[chorus]\nonly a chorus here"
	assert.Error(t, spec.Validate())
}

func TestSpecValidateMissingTitle(t *testing.T) {
	spec := validSpec()
	spec.Title = ""
	assert.Error(t, spec.Validate())
}

func TestParseSections(t *testing.T) {
	lyrics := "[verse]\nline one\nline two\n\n[chorus]\nhook\n\n[bridge]\nturn\n\n[outro]\nfade"
	sections, err := ParseSections(lyrics)
	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, "verse", sections[0].Label)
	assert.Equal(t, []string{"line one", "line two"}, sections[0].Lines)
	assert.Equal(t, "chorus", sections[1].Label)
	assert.Equal(t, "bridge", sections[2].Label)
	assert.Equal(t, "outro", sections[3].Label)
}

func TestParseSectionsRejectsUnknownLabel(t *testing.T) {
	_, err := ParseSections("[intro]\nnope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intro")
}

func TestParseSectionsRejectsUnlabeledLines(t *testing.T) {
	_, err := ParseSections("free floating line\n[verse]\nok")
	assert.Error(t, err)
}

func TestParseSectionsRejectsEmpty(t *testing.T) {
	_, err := ParseSections("   \n  ")
	assert.Error(t, err)
}

func TestFormatLyrics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "inserts blank line before labels",
			in:   "[verse]\na\n[chorus]\nb",
			want: "[verse]\na\n\n[chorus]\nb\n",
		},
		{
			name: "collapses runs of blank lines",
			in:   "[verse]\na\n\n\n\n[chorus]\nb",
			want: "[verse]\na\n\n[chorus]\nb\n",
		},
		{
			name: "adds trailing newline",
			in:   "[verse]\na",
			want: "[verse]\na\n",
		},
		{
			name: "already formatted is untouched",
			in:   "[verse]\na\n\n[chorus]\nb\n",
			want: "[verse]\na\n\n[chorus]\nb\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLyrics(tt.in))
		})
	}
}
