package litpost

// Format is the source format of a post.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatNotebook Format = "notebook"
)

// Document represents a parsed post source: its frontmatter and the ordered
// segments of its body.
type Document struct {
	Format Format
	// Metadata decoded from the frontmatter, empty if there was none
	Metadata Metadata
	// The body split into prose and code, in source order
	Segments []Segment
}

type SegmentKind int

const (
	// SegmentProse is markdown rendered as is.
	SegmentProse SegmentKind = iota
	// SegmentCode is a block addressed to the kernel's language.
	SegmentCode
	// SegmentLiteral is a fenced block for anything else, emitted verbatim.
	SegmentLiteral
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentProse:
		return "prose"
	case SegmentCode:
		return "code"
	case SegmentLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

type Segment struct {
	Kind SegmentKind
	// Markdown for prose, the code for code, the whole fence for literals
	Text string
	// The directive of a code or literal segment, e.g. python:run:hide-in
	Directive string
	// 1-based source line the segment starts on. For notebooks, the cell index.
	Line int
	// Byte column of the directive within its line
	Column int
}

// Codes returns the code segments of the document.
func (d *Document) Codes() []Segment {
	var codes []Segment
	for _, s := range d.Segments {
		if s.Kind == SegmentCode {
			codes = append(codes, s)
		}
	}
	return codes
}
