// Package python runs python code blocks in a persistent interpreter process.
//
// Every namespace is its own python process running an embedded kernel
// script. The kernel speaks newline-delimited JSON-RPC 2.0 over the process's
// original stdin and stdout; user code never sees either.
package python

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"
	"github.com/jwtly10/litpost/internal/rpc"
	"github.com/jwtly10/litpost/kernel"
	"github.com/sourcegraph/jsonrpc2"
)

//go:embed kernel.py
var script string

const (
	// Language is the directive sentinel for python blocks.
	Language = "python"
	// DefaultCommand starts the interpreter.
	DefaultCommand = "python3"

	lookupTimeout = 5 * time.Second
)

// DefaultPreludes import the fasthtml and monsterui component libraries.
// They are skipped silently when the libraries are not installed.
var DefaultPreludes = []kernel.Prelude{
	{Name: "to_xml", Source: "from fasthtml.common import *"},
	{Name: "Theme", Source: "from monsterui.all import *"},
}

var syntaxRules = kernel.Syntax{
	Comment:    "#",
	Statements: []string{"def", "class", "import", "from", "async", "@"},
	NoValue:    []string{"print("},
}

func init() {
	kernel.Register(Language, func(opts kernel.Options) (kernel.Kernel, error) {
		return New(opts)
	})
}

type Kernel struct {
	command  []string
	preludes []kernel.Prelude
	dir      string
	env      []string
}

// New creates a python kernel. The interpreter command line defaults to
// DefaultCommand and preludes to DefaultPreludes.
func New(opts kernel.Options) (*Kernel, error) {
	command := opts.Command
	if command == "" {
		command = DefaultCommand
	}
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing python command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("python command is empty")
	}

	preludes := opts.Preludes
	if preludes == nil {
		preludes = DefaultPreludes
	}

	return &Kernel{
		command:  args,
		preludes: preludes,
		dir:      opts.Dir,
		env:      opts.Env,
	}, nil
}

func (k *Kernel) Language() string      { return Language }
func (k *Kernel) Syntax() kernel.Syntax { return syntaxRules }

// Namespace is a running interpreter process.
type Namespace struct {
	proc *rpc.Process
}

type lookupParams struct {
	Name string `json:"name"`
}

type lookupReply struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// Lookup returns str() of the value bound to name.
func (ns *Namespace) Lookup(ctx context.Context, name string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var reply lookupReply
	if err := ns.proc.Call(ctx, "lookup", lookupParams{Name: name}, &reply); err != nil {
		return "", false
	}
	return reply.Text, reply.Found
}

// Close stops the interpreter.
func (ns *Namespace) Close() error {
	return ns.proc.Close()
}

func (k *Kernel) NewNamespace(_ context.Context) (kernel.Namespace, error) {
	args := append(append([]string{}, k.command[1:]...), "-u", "-c", script)
	cmd := exec.Command(k.command[0], args...)
	cmd.Dir = k.dir
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.Env = append(cmd.Env, k.env...)

	proc, err := rpc.Start(cmd, nil)
	if err != nil {
		return nil, fmt.Errorf("starting python kernel: %w", err)
	}
	return &Namespace{proc: proc}, nil
}

// executeParams carries the block to run. ExprLine is the 1-based line of a
// trailing expression candidate; the kernel only evaluates it when the parsed
// block ends in an expression statement starting on that line.
type executeParams struct {
	Code     string           `json:"code"`
	ExprLine int              `json:"exprLine,omitempty"`
	Preludes []kernel.Prelude `json:"preludes,omitempty"`
}

type executeReply struct {
	Output string      `json:"output"`
	Error  *string     `json:"error"`
	Value  *valueReply `json:"value"`
}

type valueReply struct {
	Text        string `json:"text"`
	Markup      string `json:"markup"`
	MarkupError string `json:"markupError"`
}

// Execute runs code in the namespace's interpreter. If the last line looks
// like an expression it is evaluated separately and its value returned.
func (k *Kernel) Execute(ctx context.Context, code string, ns kernel.Namespace) (res kernel.Result) {
	if ns == nil {
		created, err := k.NewNamespace(ctx)
		if err != nil {
			return kernel.Result{Err: err}
		}
		ns = created
	}
	res.Namespace = ns

	pyNs, ok := ns.(*Namespace)
	if !ok {
		res.Err = fmt.Errorf("%w: %T", kernel.ErrForeignNamespace, ns)
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("python kernel panic: %v", p)
		}
		res.Output += pyNs.proc.Stderr()
	}()

	params := executeParams{
		Code:     code,
		Preludes: kernel.Pending(ctx, k.preludes, code, ns),
	}
	if body, expr, ok := syntaxRules.TrailingExpression(code); ok {
		params.Code = body + expr
		params.ExprLine = kernel.ExpressionLine(body)
	}

	var reply executeReply
	if err := pyNs.proc.Call(ctx, "execute", params, &reply); err != nil {
		res.Err = callError(err)
		return res
	}

	res.Output = reply.Output
	if reply.Error != nil {
		res.Err = errors.New(*reply.Error)
	}
	if reply.Value != nil {
		res.Value = &kernel.Value{
			Text:      reply.Value.Text,
			Markup:    reply.Value.Markup,
			MarkupErr: reply.Value.MarkupError,
		}
	}
	return res
}

func callError(err error) error {
	if errors.Is(err, jsonrpc2.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %v", kernel.ErrKernelExited, err)
	}
	return fmt.Errorf("python kernel: %w", err)
}
