package kernel

import "context"

// Disabled wraps k so that code is never executed. The wrapped kernel keeps
// its language and syntax, every Execute reports ErrExecutionDisabled.
func Disabled(k Kernel) Kernel {
	return disabled{Kernel: k}
}

type disabled struct {
	Kernel
}

func (disabled) NewNamespace(context.Context) (Namespace, error) {
	return emptyNamespace{}, nil
}

func (disabled) Execute(_ context.Context, _ string, ns Namespace) Result {
	if ns == nil {
		ns = emptyNamespace{}
	}
	return Result{Err: ErrExecutionDisabled, Namespace: ns}
}

type emptyNamespace struct{}

func (emptyNamespace) Lookup(context.Context, string) (string, bool) { return "", false }
func (emptyNamespace) Close() error                                  { return nil }
