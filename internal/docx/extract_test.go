package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSections(t *testing.T) {
	t.Run("headings open sections and collect body text", func(t *testing.T) {
		blocks := []Block{
			{Text: "Introduction", HeadingLevel: 1},
			{Text: "First body paragraph."},
			{Text: "Second body paragraph."},
			{Text: "Scope", HeadingLevel: 2},
			{Text: "Scope body."},
		}

		sections := BuildSections(blocks)

		assert.Len(t, sections, 2)
		assert.Equal(t, "Introduction", sections[0].Title)
		assert.Equal(t, 1, sections[0].Level)
		assert.Equal(t, 0, sections[0].Order)
		assert.Contains(t, sections[0].Content, "First body paragraph.")
		assert.Contains(t, sections[0].Content, "Second body paragraph.")
		assert.Equal(t, "Scope", sections[1].Title)
		assert.Equal(t, 2, sections[1].Level)
		assert.Equal(t, 1, sections[1].Order)
	})

	t.Run("leading body text lands in the default section", func(t *testing.T) {
		blocks := []Block{
			{Text: "Preamble before any heading."},
			{Text: "Chapter", HeadingLevel: 1},
			{Text: "Chapter body."},
		}

		sections := BuildSections(blocks)

		assert.Len(t, sections, 2)
		assert.Equal(t, DefaultSectionTitle, sections[0].Title)
		assert.Equal(t, 0, sections[0].Level)
		assert.Contains(t, sections[0].Content, "Preamble")
	})

	t.Run("empty paragraphs are skipped", func(t *testing.T) {
		blocks := []Block{
			{Text: ""},
			{Text: "Heading", HeadingLevel: 1},
			{Text: ""},
			{Text: "body"},
		}

		sections := BuildSections(blocks)

		assert.Len(t, sections, 1)
		assert.Equal(t, "body\n\n", sections[0].Content)
	})

	t.Run("no blocks no sections", func(t *testing.T) {
		assert.Empty(t, BuildSections(nil))
	})
}

func TestJoinText(t *testing.T) {
	blocks := []Block{
		{Text: "one"},
		{Text: ""},
		{Text: "two"},
	}
	assert.Equal(t, "one\n\ntwo", JoinText(blocks))
}

func TestBuildStructure(t *testing.T) {
	blocks := []Block{
		{Text: "Title", HeadingLevel: 1},
		{Text: "Sub", HeadingLevel: 3},
		{Text: "Another sub", HeadingLevel: 3},
		{Text: "body text"},
	}

	s := BuildStructure(blocks, 2)

	assert.Equal(t, 4, s.TotalParagraphs)
	assert.Equal(t, 2, s.TotalTables)
	assert.True(t, s.HasTables)
	assert.Equal(t, []int{1, 3}, s.HeadingLevels)
	assert.Equal(t, 1, s.EstimatedPages)
}

func TestBuildStructureEstimatesPages(t *testing.T) {
	long := make([]byte, 1200)
	for i := range long {
		long[i] = 'a'
	}
	blocks := []Block{{Text: string(long)}}

	s := BuildStructure(blocks, 0)

	assert.Equal(t, 2, s.EstimatedPages)
	assert.False(t, s.HasTables)
	assert.Empty(t, s.HeadingLevels)
}

func TestExtractRejectsGarbage(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract([]byte("definitely not a zip archive"))
	assert.Error(t, err)
}
