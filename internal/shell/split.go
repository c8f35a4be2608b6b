package shell

import (
	"errors"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ErrNotSimple marks a line that is more than a command and its
// arguments. Such lines go to the system shell untouched.
var ErrNotSimple = errors.New("not a simple command")

// Split breaks a line into a command name and arguments. Quotes and
// backslash escapes are honoured and a leading ~ expands to home.
// Pipes, redirections, variables, substitutions and lists are not
// interpreted: Split returns ErrNotSimple for them. An empty or
// comment-only line yields no fields.
func Split(line, home string) ([]string, error) {
	f, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, ErrNotSimple
	}
	switch len(f.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, ErrNotSimple
	}

	stmt := f.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, ErrNotSimple
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(call.Args) == 0 {
		return nil, ErrNotSimple
	}

	cfg := &expand.Config{Env: expand.ListEnviron("HOME=" + home)}
	fields := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		if !plain(w) {
			return nil, ErrNotSimple
		}
		// globbing stays off: cfg has no ReadDir2
		words, err := expand.Fields(cfg, w)
		if err != nil {
			return nil, ErrNotSimple
		}
		fields = append(fields, words...)
	}
	return fields, nil
}

// plain reports whether w is built only from literals and quotes
func plain(w *syntax.Word) bool {
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
		case *syntax.SglQuoted:
			if p.Dollar {
				return false
			}
		case *syntax.DblQuoted:
			if p.Dollar {
				return false
			}
			for _, inner := range p.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}
