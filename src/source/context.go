package source

import (
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Context owns the preprocessed source text for one translation unit and answers the only question
// downstream phases need of raw text: "what did the surrounding lines of this Ref look like". Context
// is built once by the front-end and handed around as a read-only reference.
type Context struct {
	File  string   // File name as passed on the command line (post-preprocessing).
	lines []string // Source split on '\n', index 0 is line 1.
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewContext builds a Context from the full preprocessed source text of file.
func NewContext(file, text string) *Context {
	return &Context{
		File:  file,
		lines: strings.Split(text, "\n"),
	}
}

// Line returns the 1-based source line, or "" if it is out of range (possible for synthetic Refs).
func (c *Context) Line(n int) string {
	if n < 1 || n > len(c.lines) {
		return ""
	}
	return c.lines[n-1]
}

// Snippet returns up to n lines of context before and after ref.Line, each paired with its own
// 1-based line number, plus the caret line itself. This is injected into an ErrorMessage exactly
// once, at the point the message is attached to an Error.
func (c *Context) Snippet(ref Ref, n int) []ContextLine {
	lo := ref.Line - n
	if lo < 1 {
		lo = 1
	}
	hi := ref.Line + n
	if hi > len(c.lines) {
		hi = len(c.lines)
	}
	out := make([]ContextLine, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, ContextLine{Number: i, Text: c.Line(i)})
	}
	return out
}

// ContextLine pairs a 1-based line number with its text, used to print a caret-annotated snippet.
type ContextLine struct {
	Number int
	Text   string
}
