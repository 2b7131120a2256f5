package litpost

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/jwtly10/litpost/kernel"
)

// BlockResult is the rendered form of one code block.
type BlockResult struct {
	ShowCode   bool
	ShowOutput bool
	// CodeHTML is empty unless ShowCode is set.
	CodeHTML string
	// OutputHTML is empty unless the block ran.
	OutputHTML string
	// Namespace is the namespace after the block, to be passed to the next one.
	Namespace kernel.Namespace
}

// Serializer turns the value of a block into markup.
type Serializer func(v *kernel.Value) (string, error)

// KernelMarkup uses the markup the kernel produced for the value.
func KernelMarkup(v *kernel.Value) (string, error) {
	if v.MarkupErr != "" {
		return "", errors.New(v.MarkupErr)
	}
	return v.Markup, nil
}

// ProcessBlock executes code when tag asks for it and renders the code and
// its output. Execution failures end up in the output markup, never as an error.
func ProcessBlock(ctx context.Context, k kernel.Kernel, tag Tag, code string, ns kernel.Namespace) BlockResult {
	return processBlock(ctx, k, tag, code, ns, KernelMarkup)
}

func processBlock(ctx context.Context, k kernel.Kernel, tag Tag, code string, ns kernel.Namespace, serialize Serializer) BlockResult {
	res := BlockResult{
		ShowCode:   !tag.HideInput,
		ShowOutput: !tag.HideOutput,
		Namespace:  ns,
	}

	if tag.Run {
		ran := k.Execute(ctx, code, ns)
		if ran.Namespace != nil {
			res.Namespace = ran.Namespace
		}
		res.OutputHTML = formatOutput(ran, serialize)
	}

	if res.ShowCode {
		display := code
		if tag.HideCall {
			display = hideCallLine(k.Syntax(), code)
		}
		res.CodeHTML = `<pre><code class="language-` + html.EscapeString(k.Language()) + `">` +
			html.EscapeString(strings.TrimRight(display, "\n")) + `</code></pre>`
	}

	return res
}

func formatOutput(ran kernel.Result, serialize Serializer) string {
	var b strings.Builder
	if ran.Output != "" {
		b.WriteString(`<pre class="output">`)
		b.WriteString(html.EscapeString(ran.Output))
		b.WriteString(`</pre>`)
	}
	if ran.Err != nil {
		b.WriteString(`<pre class="error">`)
		b.WriteString(html.EscapeString(ran.Err.Error()))
		b.WriteString(`</pre>`)
	}
	if ran.Value != nil {
		markup, err := serialize(ran.Value)
		if err != nil {
			markup = `<pre class="result">` + html.EscapeString(ran.Value.Text) + `</pre>`
		}
		b.WriteString(markup)
	}
	return b.String()
}

// hideCallLine removes the trailing call line from the displayed code.
func hideCallLine(syntax kernel.Syntax, code string) string {
	lines := strings.Split(code, "\n")
	idx := syntax.CallLine(lines)
	if idx < 0 {
		return code
	}
	return strings.Join(append(lines[:idx:idx], lines[idx+1:]...), "\n")
}
