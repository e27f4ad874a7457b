package token

import (
	"fmt"
	"sort"
	"strings"
)

// Diagnostic is a single lex, parse or evaluation error, carrying the source
// position at which it occurred.
type Diagnostic struct {
	Pos Position
	Msg string
}

func (e *Diagnostic) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ErrorList accumulates Diagnostics in the order they are added and
// implements Unwrap() []error so callers can use errors.Is/errors.As across
// the whole batch, the same shape as go/scanner.ErrorList.
type ErrorList []*Diagnostic

// Add appends a diagnostic at pos with the given message.
func (el *ErrorList) Add(pos Position, msg string) {
	*el = append(*el, &Diagnostic{Pos: pos, Msg: msg})
}

// Addf is a convenience wrapper that formats msg with args.
func (el *ErrorList) Addf(pos Position, format string, args ...interface{}) {
	el.Add(pos, fmt.Sprintf(format, args...))
}

func (el ErrorList) Len() int      { return len(el) }
func (el ErrorList) Swap(i, j int) { el[i], el[j] = el[j], el[i] }
func (el ErrorList) Less(i, j int) bool {
	pi, pj := el[i].Pos, el[j].Pos
	if pi.File != pj.File {
		return pi.File < pj.File
	}
	if pi.Line != pj.Line {
		return pi.Line < pj.Line
	}
	return pi.Col < pj.Col
}

// Sort sorts the error list by source position.
func (el ErrorList) Sort() { sort.Sort(el) }

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (and %d more errors)", el[0], len(el)-1)
	return b.String()
}

// Unwrap allows errors.Is / errors.As to range over every diagnostic in the
// list.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}

// Err returns el as an error if it is non-empty, or nil otherwise. This
// mirrors go/scanner.ErrorList.Err.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}
