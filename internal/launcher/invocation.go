package launcher

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/coupons/coupons-compose/internal/project"
)

// Invocation is a fully resolved child process: environment additions, program and argument vector.
type Invocation struct {
	Env     []string
	Program string
	Args    []string
}

// NewInvocation builds "<program> compose -f <file> -p <project> <forwarded...>" for the selected environment.
func NewInvocation(p *project.Profile, opts Options, forwarded []string) (*Invocation, error) {
	file, err := p.ComposeFilePath(opts.Environment)
	if err != nil {
		return nil, err
	}
	name, err := p.ProjectName(opts.Environment)
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, 5+len(forwarded))
	args = append(args, "compose", "-f", file, "-p", name)
	args = append(args, forwarded...)
	return &Invocation{
		Env:     p.Environ(),
		Program: p.Program,
		Args:    args,
	}, nil
}

// String renders the invocation as a single shell command line. Words that need quoting are quoted, so the
// output can be pasted into a shell.
func (i *Invocation) String() string {
	words := make([]string, 0, len(i.Env)+1+len(i.Args))
	for _, kv := range i.Env {
		k, v, _ := strings.Cut(kv, "=")
		words = append(words, k+"="+shellquote.Join(v))
	}
	words = append(words, shellquote.Join(i.Program))
	for _, a := range i.Args {
		words = append(words, shellquote.Join(a))
	}
	return strings.Join(words, " ")
}
