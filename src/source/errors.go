package source

import (
	"fmt"
	"strings"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ErrorId partitions errors by compiler phase. The high 16 bits identify the phase; see
// the ID* constants below.
type ErrorId uint32

// ErrorMessage is one "point at this line and say something about it" observation. An Error is one or
// more ErrorMessages; most errors carry exactly one.
type ErrorMessage struct {
	Ref     Ref
	Text    string
	Context []ContextLine // Captured once, at Error.Add time.
}

// Error is a single reported problem: a short title plus the messages that explain it. Duplicate
// declarations, for instance, carry two messages: one for each conflicting site.
type Error struct {
	Id       ErrorId
	Title    string
	Messages []ErrorMessage
}

// Errors is the append-only sink every phase of the pipeline reports into. It is the only mutable
// structure shared across phases. It never deduplicates and always prints in insertion order.
type Errors struct {
	ctx    *Context
	errs   []*Error
	byKind map[ErrorId][]*Error
	mu     sync.Mutex // guards errs/byKind; analysis.RunParallel appends from multiple goroutines
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	IDIO       ErrorId = 0x0000_0000
	IDSyntax   ErrorId = 0x0001_0000
	IDLowering ErrorId = 0x0002_0000
	IDAnalysis ErrorId = 0x0003_0000
	IDCodegen  ErrorId = 0x0004_0000
)

// contextLines is the default amount of source shown above and below an offending line.
const contextLines = 2

// ---------------------
// ----- Functions -----
// ---------------------

// NewErrors creates an Errors sink bound to the given source Context, used for rendering snippets.
func NewErrors(ctx *Context) *Errors {
	return &Errors{
		ctx:    ctx,
		errs:   make([]*Error, 0, 16),
		byKind: make(map[ErrorId][]*Error, 8),
	}
}

// New starts building a new Error with the given phase-partitioned id and title, not yet appended to
// the sink. Call Add with at least one message, then Append.
func New(id ErrorId, title string) *Error {
	return &Error{Id: id, Title: title}
}

// Add attaches a message pointing at ref to the Error, capturing the surrounding source context now.
func (e *Error) Add(ctx *Context, ref Ref, format string, args ...interface{}) *Error {
	msg := ErrorMessage{Ref: ref, Text: fmt.Sprintf(format, args...)}
	if ctx != nil {
		msg.Context = ctx.Snippet(ref, contextLines)
	}
	e.Messages = append(e.Messages, msg)
	return e
}

// Append records err in the sink, indexing it by phase for has_errors_of_type-style queries. Safe to
// call concurrently (analysis.RunParallel reports from several worker goroutines into one sink).
func (errs *Errors) Append(err *Error) {
	if err == nil {
		return
	}
	errs.mu.Lock()
	defer errs.mu.Unlock()
	errs.errs = append(errs.errs, err)
	errs.byKind[err.Id&0xFFFF_0000] = append(errs.byKind[err.Id&0xFFFF_0000], err)
}

// Simple is a convenience for the common case of a one-message, one-location error.
func (errs *Errors) Simple(id ErrorId, title string, ref Ref, format string, args ...interface{}) {
	e := New(id, title)
	e.Add(errs.ctx, ref, format, args...)
	errs.Append(e)
}

// HasErrors reports whether any error has been reported so far.
func (errs *Errors) HasErrors() bool {
	return len(errs.errs) > 0
}

// HasErrorsOfType reports whether an error in the given phase band (e.g. source.IDAnalysis) exists.
func (errs *Errors) HasErrorsOfType(id ErrorId) bool {
	return len(errs.byKind[id&0xFFFF_0000]) > 0
}

// OfType returns every error reported so far in the given phase band.
func (errs *Errors) OfType(id ErrorId) []*Error {
	return errs.byKind[id&0xFFFF_0000]
}

// All returns every error reported so far, in insertion order.
func (errs *Errors) All() []*Error {
	return errs.errs
}

// Len returns the number of errors reported so far.
func (errs *Errors) Len() int {
	return len(errs.errs)
}

// ANSI escapes used by Render when color is requested. Kept unexported: callers decide whether color
// applies (typically by checking golang.org/x/term.IsTerminal on the destination fd) and pass that
// decision in, this package never probes a file descriptor itself.
const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// String renders an Error as a title, then each message with file:line:col, surrounding context and
// a caret under the offending column.
func (e *Error) String() string {
	return e.Render(false)
}

// Render is String with the title colored red and the caret line bolded when color is true.
func (e *Error) Render(color bool) string {
	title, caret := e.Title, "^"
	if color {
		title = ansiRed + e.Title + ansiReset
		caret = ansiBold + "^" + ansiReset
	}
	sb := strings.Builder{}
	sb.WriteString(title)
	sb.WriteRune('\n')
	for _, m := range e.Messages {
		sb.WriteString(fmt.Sprintf("  at %s: %s\n", m.Ref, m.Text))
		for _, cl := range m.Context {
			marker := "  "
			if cl.Number == m.Ref.Line {
				marker = "->"
			}
			sb.WriteString(fmt.Sprintf("    %s %4d | %s\n", marker, cl.Number, cl.Text))
			if cl.Number == m.Ref.Line {
				pad := strings.Repeat(" ", m.Ref.Col)
				sb.WriteString(fmt.Sprintf("              %s%s\n", pad, caret))
			}
		}
	}
	return sb.String()
}

// Print writes every reported error to stdout-compatible writer w, in insertion order, uncolored.
func (errs *Errors) Print(w func(string)) {
	errs.PrintColored(w, false)
}

// PrintColored is Print with color applied per Error.Render when color is true; the cli package decides
// color based on whether its output is an attached terminal.
func (errs *Errors) PrintColored(w func(string), color bool) {
	for _, e := range errs.errs {
		w(e.Render(color))
	}
}
