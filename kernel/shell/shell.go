// Package shell runs sh code blocks in-process with mvdan.cc/sh.
//
// A namespace is one interpreter whose variables and functions persist from
// block to block. Nothing is executed through a system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"

	"github.com/jwtly10/litpost/kernel"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Language is the directive sentinel for shell blocks.
const Language = "sh"

// DefaultPreludes define small markup helpers for blocks to build HTML with.
var DefaultPreludes = []kernel.Prelude{
	{
		Name:   "tag",
		Source: `tag() { _t=$1; shift; printf '<%s>%s</%s>' "$_t" "$*" "$_t"; }`,
	},
	{
		Name:   "card",
		Source: `card() { printf '<div class="card">%s</div>' "$*"; }`,
	},
}

var syntaxRules = kernel.Syntax{
	Comment: "#",
	Statements: []string{
		"function", "declare", "typeset", "export", "local", "readonly", "alias", "unalias",
		"source", ".", "unset", "set", "shopt", "if", "then", "else", "elif", "fi",
		"for", "while", "until", "do", "done", "case", "esac", "}",
	},
}

func init() {
	kernel.Register(Language, func(opts kernel.Options) (kernel.Kernel, error) {
		return New(opts), nil
	})
}

type Kernel struct {
	preludes []kernel.Prelude
	dir      string
	env      []string
}

// New creates a shell kernel. Preludes default to DefaultPreludes.
func New(opts kernel.Options) *Kernel {
	preludes := opts.Preludes
	if preludes == nil {
		preludes = DefaultPreludes
	}
	return &Kernel{
		preludes: preludes,
		dir:      opts.Dir,
		env:      opts.Env,
	}
}

func (k *Kernel) Language() string      { return Language }
func (k *Kernel) Syntax() kernel.Syntax { return syntaxRules }

// Namespace is a persistent interpreter.
type Namespace struct {
	runner *interp.Runner
	closed bool
}

// Lookup returns the value of a set variable, or "function" for a defined function.
func (ns *Namespace) Lookup(_ context.Context, name string) (string, bool) {
	if v, ok := ns.runner.Vars[name]; ok && v.IsSet() {
		return v.String(), true
	}
	if _, ok := ns.runner.Funcs[name]; ok {
		return "function", true
	}
	return "", false
}

func (ns *Namespace) Close() error {
	ns.closed = true
	return nil
}

func (k *Kernel) NewNamespace(_ context.Context) (kernel.Namespace, error) {
	env := append([]string{"PATH=" + os.Getenv("PATH")}, k.env...)
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.Dir(k.dir),
		interp.StdIO(nil, nil, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("creating interpreter: %w", err)
	}
	return &Namespace{runner: runner}, nil
}

// Execute runs code against ns. A trailing line made of a single expanded
// word, such as $x or "$((a * 2))", is printed as the block's value.
func (k *Kernel) Execute(ctx context.Context, code string, ns kernel.Namespace) (res kernel.Result) {
	if ns == nil {
		created, err := k.NewNamespace(ctx)
		if err != nil {
			return kernel.Result{Err: err}
		}
		ns = created
	}
	res.Namespace = ns

	shNs, ok := ns.(*Namespace)
	if !ok {
		res.Err = fmt.Errorf("%w: %T", kernel.ErrForeignNamespace, ns)
		return res
	}
	if shNs.closed {
		res.Err = fmt.Errorf("%w: namespace closed", kernel.ErrKernelExited)
		return res
	}

	var out bytes.Buffer
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("interpreter panic: %v", p)
		}
		interp.StdIO(nil, nil, nil)(shNs.runner)
		res.Output = out.String()
	}()

	for _, p := range kernel.Pending(ctx, k.preludes, code, ns) {
		if err := k.run(ctx, shNs.runner, p.Source, &bytes.Buffer{}); err != nil {
			slog.Debug("shell prelude failed", "name", p.Name, "error", err)
		}
	}

	body, expr, isCandidate := syntaxRules.TrailingExpression(code)
	if !isCandidate {
		res.Err = k.run(ctx, shNs.runner, code, &out)
		return res
	}

	src := body + expr
	file, err := syntax.NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		res.Err = fmt.Errorf("parse error: %w", err)
		return res
	}
	if len(file.Stmts) == 0 {
		return res
	}
	last := file.Stmts[len(file.Stmts)-1]
	if last.Pos().Line() != uint(kernel.ExpressionLine(body)) || !isValueStmt(last) {
		interp.StdIO(nil, &out, &out)(shNs.runner)
		res.Err = k.runStmts(ctx, shNs.runner, file.Stmts)
		return res
	}

	interp.StdIO(nil, &out, &out)(shNs.runner)
	if err := k.runStmts(ctx, shNs.runner, file.Stmts[:len(file.Stmts)-1]); err != nil || shNs.runner.Exited() {
		res.Err = err
		return res
	}

	var value bytes.Buffer
	interp.StdIO(nil, &value, &out)(shNs.runner)
	word := src[last.Pos().Offset():last.End().Offset()]
	if err := k.runSource(ctx, shNs.runner, "printf '%s' "+word); err != nil {
		res.Err = err
		return res
	}
	if value.Len() > 0 {
		res.Value = describe(value.String())
	}
	return res
}

// run executes src with stdout and stderr both written to out.
func (k *Kernel) run(ctx context.Context, runner *interp.Runner, src string, out *bytes.Buffer) error {
	interp.StdIO(nil, out, out)(runner)
	return k.runSource(ctx, runner, src)
}

// runSource parses src and runs it with runStmts.
func (k *Kernel) runSource(ctx context.Context, runner *interp.Runner, src string) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return k.runStmts(ctx, runner, file.Stmts)
}

// runStmts executes statements one by one so that running a block never
// triggers the interpreter's exit handling. The error is the status of the
// last statement run.
func (k *Kernel) runStmts(ctx context.Context, runner *interp.Runner, stmts []*syntax.Stmt) error {
	var runErr error
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		runErr = runner.Run(ctx, stmt)
		if runner.Exited() {
			break
		}
	}

	if runErr == nil {
		return nil
	}
	if status, ok := interp.IsExitStatus(runErr); ok {
		return fmt.Errorf("exit status %d", status)
	}
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	return fmt.Errorf("shell: %w", runErr)
}

// isValueStmt reports whether stmt is a single word that starts with an
// expansion or a quote. Bare words are commands and are executed instead.
func isValueStmt(stmt *syntax.Stmt) bool {
	if stmt.Negated || stmt.Background || len(stmt.Redirs) > 0 {
		return false
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(call.Args) != 1 || len(call.Args[0].Parts) == 0 {
		return false
	}
	_, literal := call.Args[0].Parts[0].(*syntax.Lit)
	return !literal
}

func describe(text string) *kernel.Value {
	v := &kernel.Value{Text: text}
	if strings.HasPrefix(strings.TrimSpace(text), "<") {
		v.Markup = text
	} else {
		v.Markup = html.EscapeString(text)
	}
	return v
}
