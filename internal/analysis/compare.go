package analysis

// Package analysis implements the rule-based document comparison pipeline:
// text diffing, section and table structural comparison, and change
// classification. It produces the flat change list persisted to the changes
// table together with the aggregate summary.

import (
	"fmt"
	"strings"

	"wara/internal/diff"
	"wara/internal/docx"
	"wara/internal/model"
)

// Section names used for derived (non-content) changes.
const (
	structureSection = "Document structure"
	metadataSection  = "Metadata"
)

// ruleConfidence is attached to every rule-based change. Rule hits are exact,
// so the value is fixed; LLM-derived changes carry computed confidences.
const ruleConfidence = 1.0

// DocumentView bundles a processed document with its extracted sections and
// tables, everything Compare needs about one side.
type DocumentView struct {
	Document *model.Document
	Sections []model.Section
	Tables   []model.Table
}

// Result is the outcome of comparing two revisions.
type Result struct {
	Changes []model.Change
	Summary model.ChangeSummary
}

// Comparator runs the comparison pipeline over two document views.
type Comparator struct {
	engine *diff.Engine
}

// NewComparator returns a Comparator backed by a fresh diff engine.
func NewComparator() *Comparator {
	return &Comparator{engine: diff.NewEngine()}
}

// Compare analyzes the two revisions according to opts and aggregates every
// detected change into one flat list with a summary.
func (c *Comparator) Compare(base, compared DocumentView, opts model.CompareOptions) *Result {
	var changes []model.Change

	if opts.IncludeTextChanges {
		changes = append(changes, c.compareText(base, compared, opts)...)
		changes = append(changes, c.compareSections(base, compared)...)
	}
	if opts.IncludeTableChanges {
		changes = append(changes, c.compareTables(base, compared)...)
	}
	if opts.IncludeStructureChanges {
		changes = append(changes, compareStructure(base, compared)...)
	}
	changes = append(changes, compareMetadata(base, compared)...)

	return &Result{Changes: changes, Summary: Summarize(changes)}
}

// compareText diffs the full text blobs and maps each buffered diff change to
// a change row. Changes shorter than MinChangeLength (old+new combined) are
// dropped as noise.
func (c *Comparator) compareText(base, compared DocumentView, opts model.CompareOptions) []model.Change {
	out := make([]model.Change, 0)
	for _, dc := range c.engine.Compare(base.Document.ContentText, compared.Document.ContentText) {
		if len([]rune(dc.OldText))+len([]rune(dc.NewText)) < opts.MinChangeLength {
			continue
		}
		out = append(out, model.Change{
			Type:       dc.Type,
			Location:   model.LocationText,
			Section:    docx.DefaultSectionTitle,
			OldValue:   dc.OldText,
			NewValue:   dc.NewText,
			Confidence: ruleConfidence,
		})
	}
	return out
}

// compareSections reports sections present on only one side (set difference
// by title) and re-diffs the content of shared sections.
func (c *Comparator) compareSections(base, compared DocumentView) []model.Change {
	baseByTitle := sectionsByTitle(base.Sections)
	comparedByTitle := sectionsByTitle(compared.Sections)

	out := make([]model.Change, 0)

	for _, s := range compared.Sections {
		if _, ok := baseByTitle[s.Title]; !ok {
			out = append(out, model.Change{
				Type:       model.ChangeTypeAdded,
				Location:   model.LocationSection,
				Section:    s.Title,
				NewValue:   fmt.Sprintf("New section added: %s", s.Title),
				Confidence: ruleConfidence,
			})
		}
	}
	for _, s := range base.Sections {
		if _, ok := comparedByTitle[s.Title]; !ok {
			out = append(out, model.Change{
				Type:       model.ChangeTypeRemoved,
				Location:   model.LocationSection,
				Section:    s.Title,
				OldValue:   fmt.Sprintf("Section removed: %s", s.Title),
				Confidence: ruleConfidence,
			})
		}
	}

	for title, baseSection := range baseByTitle {
		comparedSection, ok := comparedByTitle[title]
		if !ok || baseSection.Content == comparedSection.Content {
			continue
		}
		diffChanges := c.engine.Compare(baseSection.Content, comparedSection.Content)
		if len(diffChanges) == 0 {
			continue
		}
		var oldParts, newParts []string
		var frags []diff.Fragment
		for _, dc := range diffChanges {
			if dc.OldText != "" {
				oldParts = append(oldParts, dc.OldText)
				frags = append(frags, diff.Fragment{Op: model.ChangeTypeRemoved, Text: dc.OldText})
			}
			if dc.NewText != "" {
				newParts = append(newParts, dc.NewText)
				frags = append(frags, diff.Fragment{Op: model.ChangeTypeAdded, Text: dc.NewText})
			}
		}
		out = append(out, model.Change{
			Type:       diff.Classify(frags),
			Location:   model.LocationSection,
			Section:    title,
			OldValue:   strings.Join(oldParts, ""),
			NewValue:   strings.Join(newParts, ""),
			Confidence: ruleConfidence,
		})
	}

	return out
}

// compareTables reports tables present on only one side and compares shared
// tables row by row.
func (c *Comparator) compareTables(base, compared DocumentView) []model.Change {
	baseByTitle := tablesByTitle(base.Tables)
	comparedByTitle := tablesByTitle(compared.Tables)

	out := make([]model.Change, 0)

	for _, t := range compared.Tables {
		if _, ok := baseByTitle[t.Title]; !ok {
			out = append(out, model.Change{
				Type:       model.ChangeTypeAdded,
				Location:   model.LocationTable,
				Section:    t.Title,
				NewValue:   fmt.Sprintf("New table added: %s", t.Title),
				Confidence: ruleConfidence,
			})
		}
	}
	for _, t := range base.Tables {
		if _, ok := comparedByTitle[t.Title]; !ok {
			out = append(out, model.Change{
				Type:       model.ChangeTypeRemoved,
				Location:   model.LocationTable,
				Section:    t.Title,
				OldValue:   fmt.Sprintf("Table removed: %s", t.Title),
				Confidence: ruleConfidence,
			})
		}
	}

	for title, baseTable := range baseByTitle {
		comparedTable, ok := comparedByTitle[title]
		if !ok {
			continue
		}
		out = append(out, compareTableGrids(title, baseTable.Grid, comparedTable.Grid)...)
	}

	return out
}

// compareTableGrids reports row-count deltas and per-row cell mismatches.
func compareTableGrids(title string, base, compared model.TableGrid) []model.Change {
	out := make([]model.Change, 0)

	if len(base.Rows) != len(compared.Rows) {
		out = append(out, model.Change{
			Type:       model.ChangeTypeModified,
			Location:   model.LocationTable,
			Section:    title,
			OldValue:   fmt.Sprintf("%d rows", len(base.Rows)),
			NewValue:   fmt.Sprintf("%d rows", len(compared.Rows)),
			Confidence: ruleConfidence,
		})
	}

	maxRows := len(base.Rows)
	if len(compared.Rows) > maxRows {
		maxRows = len(compared.Rows)
	}
	for i := 0; i < maxRows; i++ {
		var baseRow, comparedRow []string
		if i < len(base.Rows) {
			baseRow = base.Rows[i]
		}
		if i < len(compared.Rows) {
			comparedRow = compared.Rows[i]
		}
		if rowsEqual(baseRow, comparedRow) {
			continue
		}
		out = append(out, model.Change{
			Type:       model.ChangeTypeModified,
			Location:   model.LocationTable,
			Section:    fmt.Sprintf("%s - row %d", title, i+1),
			OldValue:   strings.Join(baseRow, " | "),
			NewValue:   strings.Join(comparedRow, " | "),
			Confidence: ruleConfidence,
		})
	}

	return out
}

// compareStructure compares the shape summaries: paragraph count, table
// count and the set of heading levels.
func compareStructure(base, compared DocumentView) []model.Change {
	baseStruct := base.Document.Structure
	comparedStruct := compared.Document.Structure

	out := make([]model.Change, 0)

	if baseStruct.TotalParagraphs != comparedStruct.TotalParagraphs {
		out = append(out, structuralChange(
			fmt.Sprintf("%d paragraphs", baseStruct.TotalParagraphs),
			fmt.Sprintf("%d paragraphs", comparedStruct.TotalParagraphs),
		))
	}
	if baseStruct.TotalTables != comparedStruct.TotalTables {
		out = append(out, structuralChange(
			fmt.Sprintf("%d tables", baseStruct.TotalTables),
			fmt.Sprintf("%d tables", comparedStruct.TotalTables),
		))
	}
	if !intSetsEqual(baseStruct.HeadingLevels, comparedStruct.HeadingLevels) {
		out = append(out, structuralChange(
			fmt.Sprintf("heading levels %v", baseStruct.HeadingLevels),
			fmt.Sprintf("heading levels %v", comparedStruct.HeadingLevels),
		))
	}

	return out
}

func structuralChange(oldValue, newValue string) model.Change {
	return model.Change{
		Type:       model.ChangeTypeModified,
		Location:   model.LocationStructure,
		Section:    structureSection,
		OldValue:   oldValue,
		NewValue:   newValue,
		Confidence: ruleConfidence,
	}
}

// compareMetadata reports author and modification date deltas.
func compareMetadata(base, compared DocumentView) []model.Change {
	baseMeta := base.Document.Metadata
	comparedMeta := compared.Document.Metadata

	out := make([]model.Change, 0)

	if baseMeta.Author != comparedMeta.Author {
		out = append(out, model.Change{
			Type:       model.ChangeTypeModified,
			Location:   model.LocationMetadata,
			Section:    metadataSection,
			OldValue:   baseMeta.Author,
			NewValue:   comparedMeta.Author,
			Confidence: ruleConfidence,
			Context:    map[string]any{"field": "author"},
		})
	}
	if baseMeta.Modified != comparedMeta.Modified {
		out = append(out, model.Change{
			Type:       model.ChangeTypeModified,
			Location:   model.LocationMetadata,
			Section:    metadataSection,
			OldValue:   baseMeta.Modified,
			NewValue:   comparedMeta.Modified,
			Confidence: ruleConfidence,
			Context:    map[string]any{"field": "modified"},
		})
	}

	return out
}

// Summarize counts changes by type. Unknown types count as modified.
func Summarize(changes []model.Change) model.ChangeSummary {
	var s model.ChangeSummary
	for _, ch := range changes {
		switch ch.Type {
		case model.ChangeTypeAdded:
			s.Added++
		case model.ChangeTypeRemoved:
			s.Removed++
		default:
			s.Modified++
		}
		s.Total++
	}
	return s
}

func sectionsByTitle(sections []model.Section) map[string]model.Section {
	m := make(map[string]model.Section, len(sections))
	for _, s := range sections {
		m[s.Title] = s
	}
	return m
}

func tablesByTitle(tables []model.Table) map[string]model.Table {
	m := make(map[string]model.Table, len(tables))
	for _, t := range tables {
		m[t.Title] = t
	}
	return m
}

func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intSetsEqual(a, b []int) bool {
	set := func(xs []int) map[int]bool {
		m := make(map[int]bool, len(xs))
		for _, x := range xs {
			m[x] = true
		}
		return m
	}
	sa, sb := set(a), set(b)
	if len(sa) != len(sb) {
		return false
	}
	for k := range sa {
		if !sb[k] {
			return false
		}
	}
	return true
}
