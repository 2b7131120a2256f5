package litpost

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// notebook is the part of the nbformat v4 schema the renderer reads.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string     `json:"cell_type"`
	Source   cellSource `json:"source"`
}

// cellSource is stored either as one string or as a list of lines.
type cellSource string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = cellSource(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source must be a string or a list of strings: %w", err)
	}
	*s = cellSource(strings.Join(lines, ""))
	return nil
}

// ParseNotebookDoc parses a notebook post.
//
// A leading raw cell holds the frontmatter. Markdown cells are prose. A code
// cell whose first line is a directive comment such as "#|python:run" uses
// that directive; a bare "#|python" means run with the output hidden. Code
// cells without a directive run with both code and output hidden. Other cell
// types are dropped.
func (p *Parser) ParseNotebookDoc(r io.Reader) (*Document, error) {
	var nb notebook
	if err := json.NewDecoder(r).Decode(&nb); err != nil {
		return nil, fmt.Errorf("invalid notebook: %w", err)
	}

	doc := &Document{Format: FormatNotebook}

	cells, skipped := nb.Cells, 0
	if len(cells) > 0 && cells[0].CellType == "raw" {
		doc.Metadata, _ = ExtractFrontmatter([]byte(cells[0].Source))
		cells, skipped = cells[1:], 1
	}

	marker := p.comment + "|" + p.language
	for i, cell := range cells {
		index := skipped + i + 1
		src := string(cell.Source)
		switch cell.CellType {
		case "markdown":
			doc.Segments = append(doc.Segments, Segment{Kind: SegmentProse, Text: src, Line: index})
		case "code":
			first, rest, _ := strings.Cut(src, "\n")
			seg := Segment{Kind: SegmentCode, Line: index}
			trimmed := strings.TrimSpace(first)
			switch {
			case !strings.HasPrefix(strings.TrimLeft(first, " \t"), marker):
				seg.Directive = p.language + ":" + OptRun + ":" + OptHide
				seg.Text = src
			case trimmed == marker:
				seg.Directive = p.language + ":" + OptRun + ":" + OptHideOut
				seg.Text = rest
			default:
				seg.Directive = strings.TrimPrefix(trimmed, p.comment+"|")
				seg.Text = rest
			}
			doc.Segments = append(doc.Segments, seg)
		default:
			slog.Debug("skipping notebook cell", "index", index, "type", cell.CellType)
		}
	}

	return doc, nil
}
