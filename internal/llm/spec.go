package llm

import (
	"fmt"
	"strings"
)

const (
	genreTagComponents = 5
	maxVerseLines      = 8
	maxChorusLines     = 6
)

var sectionLabels = map[string]bool{
	"verse":  true,
	"chorus": true,
	"bridge": true,
	"outro":  true,
}

// GenerationSpec is the validated output of the LLM stage: everything the
// synthesis model needs plus display metadata.
type GenerationSpec struct {
	GenreTags   string `json:"genre_tags"`
	Lyrics      string `json:"lyrics"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Section is one labeled block of lyrics
type Section struct {
	Label string
	Lines []string
}

// Validate enforces the synthesis input contract. A spec that fails here is
// treated as a provider failure so the builder falls back to the next model.
func (s *GenerationSpec) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("missing title")
	}

	tags := strings.Fields(s.GenreTags)
	if len(tags) != genreTagComponents {
		return fmt.Errorf("genre_tags must have exactly %d components, got %d", genreTagComponents, len(tags))
	}

	sections, err := ParseSections(s.Lyrics)
	if err != nil {
		return err
	}

	hasVerse, hasChorus := false, false
	for _, section := range sections {
		switch section.Label {
		case "verse":
			hasVerse = true
			if len(section.Lines) > maxVerseLines {
				return fmt.Errorf("verse section has %d lines, max %d", len(section.Lines), maxVerseLines)
			}
		case "chorus":
			hasChorus = true
			if len(section.Lines) > maxChorusLines {
				return fmt.Errorf("chorus section has %d lines, max %d", len(section.Lines), maxChorusLines)
			}
		}
	}
	if !hasVerse {
		return fmt.Errorf("lyrics missing [verse] section")
	}
	if !hasChorus {
		return fmt.Errorf("lyrics missing [chorus] section")
	}

	return nil
}

// ParseSections splits lyrics into labeled sections. Every section must open
// with a [label] line; blank lines delimit sections.
func ParseSections(lyrics string) ([]Section, error) {
	lyrics = strings.TrimSpace(lyrics)
	if lyrics == "" {
		return nil, fmt.Errorf("empty lyrics")
	}

	var sections []Section
	var current *Section

	for _, line := range strings.Split(lyrics, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			current = nil
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			label := strings.ToLower(strings.Trim(line, "[]"))
			if !sectionLabels[label] {
				return nil, fmt.Errorf("unknown section label %q", label)
			}
			sections = append(sections, Section{Label: label})
			current = &sections[len(sections)-1]
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("lyrics line outside a labeled section: %q", line)
		}
		current.Lines = append(current.Lines, line)
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("lyrics contain no labeled sections")
	}
	return sections, nil
}

// FormatLyrics normalizes lyrics for the synthesis model: label lines intact,
// exactly one blank line between sections, trailing newline.
func FormatLyrics(lyrics string) string {
	lyrics = strings.TrimSpace(lyrics)
	lyrics = strings.ReplaceAll(lyrics, "\n[", "\n\n[")
	for strings.Contains(lyrics, "\n\n\n") {
		lyrics = strings.ReplaceAll(lyrics, "\n\n\n", "\n\n")
	}
	if !strings.HasSuffix(lyrics, "\n") {
		lyrics += "\n"
	}
	return lyrics
}
