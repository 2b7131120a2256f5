package litpost

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/jwtly10/litpost/kernel"
	"github.com/jwtly10/litpost/kernel/python"
	"github.com/jwtly10/litpost/kernel/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestRenderMarkdownGolden(t *testing.T) {
	source, err := os.ReadFile("testdata/render/shell.md")
	require.NoError(t, err)

	tests := []struct {
		name   string
		opts   Options
		golden string
	}{
		{
			name:   "defaults",
			golden: "render/shell.golden.html",
		},
		{
			name:   "links in new tab without label",
			opts:   Options{OpenLinksInNewTab: true, HideLiveLabel: true},
			golden: "render/shell-links.golden.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(shell.New(kernel.Options{}), tt.opts)

			got, err := r.RenderMarkdown(context.Background(), source)
			require.NoError(t, err)
			golden.Assert(t, got, tt.golden)
		})
	}
}

func TestRenderThreadsOneNamespacePerDocument(t *testing.T) {
	var namespaces []*recordNamespace
	k := &scriptKernel{}
	k.run = func(code string) kernel.Result { return kernel.Result{} }

	r := NewRenderer(&namespaceTracker{scriptKernel: k, created: &namespaces}, Options{})
	source := "```python:run\nx = 1\n```\n\n```python:run\nx\n```\n"

	_, err := r.RenderMarkdown(context.Background(), []byte(source))
	require.NoError(t, err)
	require.Len(t, namespaces, 1, "both blocks share one namespace")
	assert.True(t, namespaces[0].closed, "namespace is closed once the document is rendered")
	assert.Equal(t, []string{"x = 1\n", "x\n"}, k.executed)

	_, err = r.RenderMarkdown(context.Background(), []byte(source))
	require.NoError(t, err)
	assert.Len(t, namespaces, 2, "every document starts from a fresh namespace")
}

func TestRenderWithoutRunningBlocksOpensNoNamespace(t *testing.T) {
	k := &scriptKernel{}
	r := NewRenderer(k, Options{})

	got, err := r.RenderMarkdown(context.Background(), []byte("Intro\n\n```python\nx = 1\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, k.opened)
	assert.Empty(t, k.executed)
	assert.Equal(t, "<p>Intro</p>\n"+`<pre><code class="language-python">x = 1</code></pre>`+blockSpacer, got)
}

func TestRenderShellDocumentsAreIsolated(t *testing.T) {
	r := NewRenderer(shell.New(kernel.Options{}), Options{HideLiveLabel: true})

	_, err := r.RenderMarkdown(context.Background(), []byte("```sh:run\nsecret=1\n```\n"))
	require.NoError(t, err)

	got, err := r.RenderMarkdown(context.Background(), []byte("```sh:run:hide-in\n\"${secret:-unset}\"\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, outputSpacer+"unset"+blockSpacer, got)
}

func TestRenderTildeFenceIsNotRun(t *testing.T) {
	r := NewRenderer(shell.New(kernel.Options{}), Options{HideLiveLabel: true})

	got, err := r.RenderMarkdown(context.Background(), []byte("~~~sh:run\necho executed\n~~~\n"))
	require.NoError(t, err)
	assert.NotContains(t, got, `<pre class="output">`)
	assert.Contains(t, got, "<pre><code")
	assert.Contains(t, got, "echo executed")
}

func TestRenderOptions(t *testing.T) {
	value := func(string) kernel.Result {
		return kernel.Result{Value: &kernel.Value{Text: "2", Markup: "2"}}
	}

	tests := []struct {
		name   string
		opts   Options
		source string
		want   string
	}{
		{
			name:   "live label",
			source: "```python:run:hide-in\n1 + 1\n```\n",
			want:   outputSpacer + "2" + liveLabel + blockSpacer,
		},
		{
			name:   "no live label",
			opts:   Options{HideLiveLabel: true},
			source: "```python:run:hide-in\n1 + 1\n```\n",
			want:   outputSpacer + "2" + blockSpacer,
		},
		{
			name:   "hidden block leaves only the spacer",
			source: "```python:run:hide\n1 + 1\n```\n",
			want:   blockSpacer,
		},
		{
			name:   "literal fence verbatim",
			source: "```go\nfmt.Println(\"hi\")\n```\n",
			want:   "```go\nfmt.Println(\"hi\")\n```\n",
		},
		{
			name:   "literal fence rendered",
			opts:   Options{RenderLiterals: true},
			source: "```go\nfmt.Println(\"hi\")\n```\n",
			want:   `<pre><code class="language-go">fmt.Println(&quot;hi&quot;)` + "\n" + `</code></pre>` + "\n",
		},
		{
			name:   "custom serializer",
			opts:   Options{Serializer: func(v *kernel.Value) (string, error) { return "<data>" + v.Text + "</data>", nil }},
			source: "```python:run:hide-in\n1 + 1\n```\n",
			want:   outputSpacer + "<data>2</data>" + liveLabel + blockSpacer,
		},
		{
			name:   "raw html in prose",
			source: "<aside>note</aside>\n",
			want:   "<aside>note</aside>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(&scriptKernel{run: value}, tt.opts)

			got, err := r.RenderMarkdown(context.Background(), []byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderNotebookDefaults(t *testing.T) {
	k := &scriptKernel{run: func(code string) kernel.Result {
		return kernel.Result{Output: "ran " + code}
	}}
	r := NewRenderer(k, Options{HideLiveLabel: true})

	source := `{"cells": [
		{"cell_type": "code", "source": "setup = 1"},
		{"cell_type": "code", "source": "#|python\nshown = 2"},
		{"cell_type": "code", "source": "#|python:run:hide-in\nresult"}
	]}`

	got, err := r.RenderNotebook(context.Background(), []byte(source))
	require.NoError(t, err)

	assert.Equal(t, []string{"setup = 1", "shown = 2", "result"}, k.executed, "every cell runs")
	want := blockSpacer +
		`<pre><code class="language-python">shown = 2</code></pre>` + blockSpacer +
		outputSpacer + `<pre class="output">ran result</pre>` + blockSpacer
	assert.Equal(t, want, got)
}

func TestRenderDisabledKernel(t *testing.T) {
	r := NewRenderer(kernel.Disabled(shell.New(kernel.Options{})), Options{HideLiveLabel: true})

	got, err := r.RenderMarkdown(context.Background(), []byte("```sh:run\necho hi\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, `<pre><code class="language-sh">echo hi</code></pre>`+outputSpacer+
		`<pre class="error">code execution is disabled</pre>`+blockSpacer, got)
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	k := &scriptKernel{}
	_, err := NewRenderer(k, Options{}).RenderMarkdown(ctx, []byte("```python:run\n1\n```\n"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, k.executed)
}

func TestRenderPython(t *testing.T) {
	if _, err := exec.LookPath(python.DefaultCommand); err != nil {
		t.Skipf("%s not available", python.DefaultCommand)
	}

	k, err := python.New(kernel.Options{})
	require.NoError(t, err)
	r := NewRenderer(k, Options{})

	source := "---\ntitle: Hello\n---\n```python:run\n1+1\n```\n"
	doc, err := r.Parser().ParseMarkdownDoc(strings.NewReader(source))
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Metadata.Title)

	got, err := r.RenderDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, `<pre><code class="language-python">1+1</code></pre>`+outputSpacer+"2"+liveLabel+blockSpacer, got)
}

func TestRenderPythonThreadsState(t *testing.T) {
	if _, err := exec.LookPath(python.DefaultCommand); err != nil {
		t.Skipf("%s not available", python.DefaultCommand)
	}

	k, err := python.New(kernel.Options{})
	require.NoError(t, err)
	r := NewRenderer(k, Options{HideLiveLabel: true})

	source := "```python:run:hide-in\ny = 2\nprint(y)\n```\n\n```python:run:hide-call\nz = y * 3\nz\n```\n"
	got, err := r.RenderMarkdown(context.Background(), []byte(source))
	require.NoError(t, err)

	want := outputSpacer + `<pre class="output">2` + "\n" + `</pre>` + blockSpacer +
		`<pre><code class="language-python">z = y * 3</code></pre>` + outputSpacer + "6" + blockSpacer
	assert.Equal(t, want, got)
}

// namespaceTracker records the namespaces a kernel hands out.
type namespaceTracker struct {
	*scriptKernel
	created *[]*recordNamespace
}

func (n *namespaceTracker) Execute(ctx context.Context, code string, ns kernel.Namespace) kernel.Result {
	if ns == nil {
		fresh := &recordNamespace{}
		*n.created = append(*n.created, fresh)
		ns = fresh
	}
	return n.scriptKernel.Execute(ctx, code, ns)
}
