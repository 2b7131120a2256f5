// Package kernel defines the execution boundary used by the renderer.
//
// A Kernel runs code fragments for a single language against a Namespace, the
// session state accumulated by every fragment executed so far in a document.
// The renderer only ever talks to this interface, so execution can be swapped
// for a sandboxed implementation or switched off entirely with [Disabled].
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrExecutionDisabled is reported by kernels that refuse to run code.
	ErrExecutionDisabled = errors.New("code execution is disabled")
	// ErrForeignNamespace is reported when a namespace created by another kernel is passed to Execute.
	ErrForeignNamespace = errors.New("namespace belongs to a different kernel")
	// ErrKernelExited is reported when the process backing a namespace is gone.
	ErrKernelExited = errors.New("kernel exited")
	// ErrUnknownKernel is returned by New for unregistered kernel names.
	ErrUnknownKernel = errors.New("unknown kernel")
)

// Namespace is the mutable session state a kernel executes code against.
//
// A namespace is owned by whoever created it and must be closed when the
// document it belongs to has been rendered.
type Namespace interface {
	// Lookup returns the string form of the value bound to name. A lookup
	// that cannot complete before ctx is done reports the name as unbound.
	Lookup(ctx context.Context, name string) (string, bool)
	Close() error
}

// Value is the result of a trailing expression.
type Value struct {
	// Text is the plain string form of the value.
	Text string
	// Markup is the HTML produced by the kernel's markup convention.
	Markup string
	// MarkupErr is set when the markup convention failed for this value.
	MarkupErr string
}

// Result is the outcome of executing one code fragment.
type Result struct {
	// Output holds everything written to stdout and stderr, interleaved.
	Output string
	// Err is non-nil when execution failed.
	Err error
	// Value is nil unless the fragment ended in an expression with a value.
	Value *Value
	// Namespace is the namespace the code ran against, including any bindings it made.
	Namespace Namespace
}

// Prelude is a snippet run before user code to make convenience names available.
//
// The snippet runs only while Name is unbound in the namespace and the user
// code does not already contain the snippet's first line.
type Prelude struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// Pending returns the preludes that still need to run before code. Nothing
// is pending once ctx is done.
func Pending(ctx context.Context, preludes []Prelude, code string, ns Namespace) []Prelude {
	var pending []Prelude
	for _, p := range preludes {
		if ctx.Err() != nil {
			return nil
		}
		if ns != nil {
			if _, bound := ns.Lookup(ctx, p.Name); bound {
				continue
			}
		}
		first, _, _ := strings.Cut(strings.TrimSpace(p.Source), "\n")
		if first != "" && strings.Contains(code, first) {
			continue
		}
		pending = append(pending, p)
	}
	return pending
}

// Kernel executes code for one language.
type Kernel interface {
	// Language is the directive sentinel handled by this kernel, e.g. "python".
	Language() string
	// Syntax describes the line-level conventions of the language.
	Syntax() Syntax
	// NewNamespace starts an empty session.
	NewNamespace(ctx context.Context) (Namespace, error)
	// Execute runs code against ns, creating a namespace when ns is nil.
	// Failures are reported through Result.Err, never as a panic.
	Execute(ctx context.Context, code string, ns Namespace) Result
}

// Options configures kernels created through the registry.
type Options struct {
	// Command is the interpreter command line for process backed kernels.
	Command string
	// Preludes replaces the kernel's default preludes when non-nil.
	Preludes []Prelude
	// Dir is the working directory code runs in.
	Dir string
	// Env is added to the environment code runs with.
	Env []string
}

// Factory builds a kernel from options.
type Factory func(opts Options) (Kernel, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a kernel factory available by name. It panics on duplicates.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("kernel: Register called twice for %q", name))
	}
	registry[name] = factory
}

// New creates the kernel registered under name.
func New(name string, opts Options) (Kernel, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownKernel, name, strings.Join(Names(), ", "))
	}
	return factory(opts)
}

// Names lists the registered kernels in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
