package litpost

import (
	"fmt"
	"strings"
)

// Directive option tokens.
const (
	OptRun      = "run"
	OptHide     = "hide"
	OptHideIn   = "hide-in"
	OptHideOut  = "hide-out"
	OptHideCall = "hide-call"
)

// Tag holds the execution and visibility options of a code block, parsed
// from a directive such as "python:run:hide-in".
type Tag struct {
	// Run executes the block.
	Run bool
	// HideInput suppresses the code.
	HideInput bool
	// HideOutput suppresses the output.
	HideOutput bool
	// HideCall drops the trailing call line from the displayed code.
	HideCall bool
}

// ParseTag parses a directive for language. A directive that does not start
// with the language sentinel yields the zero Tag. Unknown tokens are ignored.
func ParseTag(language, directive string) Tag {
	tokens := strings.Split(strings.TrimSpace(directive), ":")
	if tokens[0] != language {
		return Tag{}
	}

	var tag Tag
	for _, tok := range tokens[1:] {
		switch tok {
		case OptRun:
			tag.Run = true
		case OptHide:
			tag.HideInput = true
			tag.HideOutput = true
		case OptHideIn:
			tag.HideInput = true
		case OptHideOut:
			tag.HideOutput = true
		case OptHideCall:
			tag.HideCall = true
		}
	}
	return tag
}

// String renders the options in canonical order, e.g. "run:hide-in".
func (t Tag) String() string {
	var opts []string
	if t.Run {
		opts = append(opts, OptRun)
	}
	switch {
	case t.HideInput && t.HideOutput:
		opts = append(opts, OptHide)
	case t.HideInput:
		opts = append(opts, OptHideIn)
	case t.HideOutput:
		opts = append(opts, OptHideOut)
	}
	if t.HideCall {
		opts = append(opts, OptHideCall)
	}
	return strings.Join(opts, ":")
}

// Directive renders the tag back into a directive for language.
func (t Tag) Directive(language string) string {
	if opts := t.String(); opts != "" {
		return language + ":" + opts
	}
	return language
}

// Severity grades a DirectiveProblem.
type Severity int

const (
	SeverityHint Severity = iota
	SeverityWarning
	SeverityError
)

// DirectiveProblem is a suspicious part of a directive. Start and End are
// byte offsets into the directive as given.
type DirectiveProblem struct {
	Start    int
	End      int
	Severity Severity
	Message  string
}

// CheckDirective reports tokens of a directive that the renderer will ignore
// or that contradict each other. Directives for other languages are not
// checked unless they look like a misspelt sentinel.
func CheckDirective(language, directive string) []DirectiveProblem {
	offset := len(directive) - len(strings.TrimLeft(directive, " \t"))
	tokens := strings.Split(strings.TrimSpace(directive), ":")

	type span struct{ start, end int }
	spans := make([]span, len(tokens))
	pos := offset
	for i, tok := range tokens {
		spans[i] = span{pos, pos + len(tok)}
		pos += len(tok) + 1
	}

	var problems []DirectiveProblem
	add := func(i int, sev Severity, format string, args ...any) {
		problems = append(problems, DirectiveProblem{
			Start:    spans[i].start,
			End:      spans[i].end,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if tokens[0] != language {
		if looksLikeSentinel(language, tokens) {
			add(0, SeverityWarning, "block is for %q, not %q, and will be shown verbatim", tokens[0], language)
		}
		return problems
	}

	seen := map[string]int{}
	for i, tok := range tokens[1:] {
		i++
		switch tok {
		case OptRun, OptHide, OptHideIn, OptHideOut, OptHideCall:
		default:
			add(i, SeverityHint, "unknown option %q is ignored", tok)
			continue
		}
		if _, dup := seen[tok]; dup {
			add(i, SeverityHint, "option %q is repeated", tok)
			continue
		}
		seen[tok] = i
	}

	_, hide := seen[OptHide]
	if i, ok := seen[OptHideIn]; ok && hide {
		add(i, SeverityWarning, "%q is redundant with %q", OptHideIn, OptHide)
	}
	if i, ok := seen[OptHideOut]; ok && hide {
		add(i, SeverityWarning, "%q is redundant with %q", OptHideOut, OptHide)
	}
	_, hideIn := seen[OptHideIn]
	if i, ok := seen[OptHideCall]; ok && (hide || hideIn) {
		add(i, SeverityWarning, "%q has no effect when the code is hidden", OptHideCall)
	}
	_, run := seen[OptRun]
	if i, ok := seen[OptHideOut]; ok && !run && !hide {
		add(i, SeverityHint, "%q has no effect without %q", OptHideOut, OptRun)
	}

	return problems
}

// looksLikeSentinel reports whether a foreign first token was probably meant
// to be the language: a case-insensitive match, or followed by options.
func looksLikeSentinel(language string, tokens []string) bool {
	if strings.EqualFold(tokens[0], language) {
		return true
	}
	for _, tok := range tokens[1:] {
		switch tok {
		case OptRun, OptHide, OptHideIn, OptHideOut, OptHideCall:
			return true
		}
	}
	return false
}
