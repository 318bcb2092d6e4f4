package docx

// Package docx parses Word (.docx) content into the domain representation
// used by the comparison pipeline: plain text, heading-delimited sections,
// table grids, core-property metadata and a structure summary.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	godocx "github.com/fumiama/go-docx"

	"wara/internal/model"
)

// DefaultSectionTitle is assigned to body text that appears before the first
// heading of a document.
const DefaultSectionTitle = "General"

// charsPerPage is the rough density used to estimate page counts.
const charsPerPage = 500

// Block is one body paragraph with its resolved heading level
// (0 means plain body text).
type Block struct {
	Text         string
	HeadingLevel int
}

// Content is everything extracted from one document.
type Content struct {
	Text      string
	Sections  []model.Section
	Tables    []model.Table
	Metadata  model.Metadata
	Structure model.Structure
}

// Extractor parses .docx payloads.
type Extractor struct{}

// NewExtractor returns a ready Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the given .docx bytes into Content.
func (e *Extractor) Extract(data []byte) (*Content, error) {
	doc, err := godocx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var (
		blocks []Block
		grids  []model.TableGrid
	)
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *godocx.Paragraph:
			blocks = append(blocks, Block{
				Text:         strings.TrimSpace(fmt.Sprint(it)),
				HeadingLevel: headingLevel(it),
			})
		case *godocx.Table:
			grids = append(grids, tableGrid(it))
		}
	}

	meta := coreProperties(data)
	meta.ParagraphCount = len(blocks)
	meta.TableCount = len(grids)

	structure := BuildStructure(blocks, len(grids))
	meta.PageCount = structure.EstimatedPages

	return &Content{
		Text:      JoinText(blocks),
		Sections:  BuildSections(blocks),
		Tables:    buildTables(grids),
		Metadata:  meta,
		Structure: structure,
	}, nil
}

// JoinText concatenates all non-empty paragraph texts with blank lines,
// producing the blob the text diff runs over.
func JoinText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BuildSections groups paragraphs into heading-delimited sections. Headings
// open a new section; body text before the first heading lands in a section
// titled DefaultSectionTitle with level 0.
func BuildSections(blocks []Block) []model.Section {
	sections := make([]model.Section, 0)
	var current *model.Section
	order := 0

	for _, b := range blocks {
		if b.Text == "" {
			continue
		}
		if b.HeadingLevel > 0 {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &model.Section{
				Title: b.Text,
				Level: b.HeadingLevel,
				Order: order,
			}
			order++
			continue
		}
		if current == nil {
			current = &model.Section{
				Title:   DefaultSectionTitle,
				Level:   0,
				Order:   order,
				Content: b.Text + "\n\n",
			}
			order++
			continue
		}
		current.Content += b.Text + "\n\n"
	}
	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}

// BuildStructure summarizes the document shape for structural comparison.
func BuildStructure(blocks []Block, tableCount int) model.Structure {
	levels := make(map[int]bool)
	totalChars := 0
	for _, b := range blocks {
		totalChars += len(b.Text)
		if b.HeadingLevel > 0 {
			levels[b.HeadingLevel] = true
		}
	}

	headingLevels := make([]int, 0, len(levels))
	for l := 1; l <= 9; l++ {
		if levels[l] {
			headingLevels = append(headingLevels, l)
		}
	}

	pages := totalChars / charsPerPage
	if pages < 1 {
		pages = 1
	}

	return model.Structure{
		TotalParagraphs: len(blocks),
		TotalTables:     tableCount,
		HeadingLevels:   headingLevels,
		HasTables:       tableCount > 0,
		EstimatedPages:  pages,
	}
}

func buildTables(grids []model.TableGrid) []model.Table {
	tables := make([]model.Table, 0, len(grids))
	for i, g := range grids {
		tables = append(tables, model.Table{
			Title: fmt.Sprintf("Table %d", i+1),
			Grid:  g,
			Order: i,
		})
	}
	return tables
}

// headingLevel resolves the heading depth from the paragraph style
// ("Heading1".."Heading9" and the spaced variant); 0 means body text.
func headingLevel(p *godocx.Paragraph) int {
	if p.Properties == nil || p.Properties.Style == nil {
		return 0
	}
	name := strings.ToLower(p.Properties.Style.Val)
	name = strings.ReplaceAll(name, " ", "")
	rest, ok := strings.CutPrefix(name, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > 9 {
		return 0
	}
	return n
}

func tableGrid(t *godocx.Table) model.TableGrid {
	grid := model.TableGrid{
		Headers: []string{},
		Rows:    [][]string{},
	}
	for i, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if txt := strings.TrimSpace(fmt.Sprint(p)); txt != "" {
					parts = append(parts, txt)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		grid.Rows = append(grid.Rows, cells)
		// The first row doubles as the header row.
		if i == 0 {
			grid.Headers = cells
			grid.ColCount = len(cells)
		}
	}
	grid.RowCount = len(grid.Rows)
	return grid
}

// coreProps mirrors the subset of docProps/core.xml the service keeps.
type coreProps struct {
	Title       string `xml:"title"`
	Subject     string `xml:"subject"`
	Creator     string `xml:"creator"`
	Keywords    string `xml:"keywords"`
	Description string `xml:"description"`
	Created     string `xml:"created"`
	Modified    string `xml:"modified"`
}

// coreProperties reads docProps/core.xml from the docx container. go-docx
// does not expose core properties, so the part is read directly from the
// zip. Absent or malformed properties degrade to empty metadata.
func coreProperties(data []byte) model.Metadata {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.Metadata{}
	}
	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return model.Metadata{}
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return model.Metadata{}
		}
		var props coreProps
		if err := xml.Unmarshal(raw, &props); err != nil {
			return model.Metadata{}
		}
		return model.Metadata{
			Title:    props.Title,
			Author:   props.Creator,
			Subject:  props.Subject,
			Keywords: props.Keywords,
			Comments: props.Description,
			Created:  props.Created,
			Modified: props.Modified,
		}
	}
	return model.Metadata{}
}
