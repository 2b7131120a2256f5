package kernel

import (
	"strings"
	"unicode"
)

// Syntax describes the line conventions a kernel's language uses.
//
// It drives two heuristics: deciding whether the last line of a fragment is
// an expression whose value should be shown, and which line to drop from the
// displayed code when a block asks for its call line to be hidden. Neither
// parses the language; they look at one line at a time.
type Syntax struct {
	// Comment is the line comment prefix.
	Comment string
	// Statements are leading keywords that mark a line as a statement.
	Statements []string
	// NoValue are prefixes that are never evaluated for a value but may still be hidden.
	NoValue []string
}

// TrailingExpression splits code into the body to execute and a trailing
// expression to evaluate. ok is false when the last line is not a candidate,
// in which case the whole of code should be executed as is.
//
// body+expr is the trimmed code. The candidate line may close a construct
// opened in body, so kernels confirm it with their own parser before
// running body on its own.
func (s Syntax) TrailingExpression(code string) (body, expr string, ok bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(code, "\r\n", "\n"))
	if trimmed == "" {
		return "", "", false
	}

	idx := strings.LastIndex(trimmed, "\n")
	last := trimmed[idx+1:]
	if startsIndented(last) || s.IsComment(last) || s.IsStatement(last) || s.hasPrefix(last, s.NoValue) {
		return "", "", false
	}

	return trimmed[:idx+1], last, true
}

// ExpressionLine returns the 1-based line the trailing expression starts on
// in body+expr.
func ExpressionLine(body string) int {
	return strings.Count(body, "\n") + 1
}

// CallLine returns the index of the line to hide for hide-call, or -1.
//
// The candidate is the last line that is neither blank nor a comment. It is
// only hidden when it is not an assignment or statement.
func (s Syntax) CallLine(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || s.IsComment(line) {
			continue
		}
		if s.IsStatement(line) {
			return -1
		}
		return i
	}
	return -1
}

// IsComment reports whether line is a line comment.
func (s Syntax) IsComment(line string) bool {
	return s.Comment != "" && strings.HasPrefix(strings.TrimSpace(line), s.Comment)
}

// IsStatement reports whether line is an assignment or begins with a statement keyword.
func (s Syntax) IsStatement(line string) bool {
	line = strings.TrimSpace(line)
	return HasAssignment(line) || s.hasPrefix(line, s.Statements)
}

func (s Syntax) hasPrefix(line string, prefixes []string) bool {
	line = strings.TrimSpace(line)
	for _, p := range prefixes {
		if !strings.HasPrefix(line, p) {
			continue
		}
		// keywords need a word boundary, "define" is not "def"
		if isWordByte(p[len(p)-1]) && len(line) > len(p) && isWordByte(line[len(p)]) {
			continue
		}
		return true
	}
	return false
}

// HasAssignment reports whether line contains an '=' that is not part of a
// comparison operator (==, !=, <=, >=).
func HasAssignment(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != '=' {
			continue
		}
		if i+1 < len(line) && line[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>", line[i-1]) >= 0 {
			continue
		}
		return true
	}
	return false
}

func startsIndented(line string) bool {
	return line != "" && unicode.IsSpace(rune(line[0]))
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
