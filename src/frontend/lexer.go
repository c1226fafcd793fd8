// This lexer is based on, and copied from, Rob Pike's talk on Go scanners.
// Link to the talk on YouTube: https://www.youtube.com/watch?v=HxaD_trXwRE
// Link to presentation slides: https://talks.golang.org/2011/lex.slide#1
//
// The lexer uses state functions stateFunc to define the lexer state. States allow the lexer to treat
// the same runes differently depending on context. State transitions happen in the current state on
// the appearance of key runes. The lexer scans in runes, not bytes, giving it native UTF-8 support.

package frontend

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"jcc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// stateFunc defines the state of the lexer.
type stateFunc func(*lexer) stateFunc

// token is a lexeme scanned by the lexer, with its position in the source stream.
type token struct {
	typ  tokenType
	val  string
	line int
	pos  int
}

// lexer traverses a source stream rune by rune and emits tokens on a channel the parser drains.
type lexer struct {
	input       string
	start       int
	pos         int
	width       int
	line        int
	startOnLine int
	state       stateFunc
	items       chan token
	file        string
}

// ---------------------
// ----- Constants -----
// ---------------------

const eof = 0

// --------------------------
// ----- token functions -----
// --------------------------

func (i token) String() string {
	switch i.typ {
	case tokEOF:
		return "EOF"
	case tokError:
		return fmt.Sprintf("%s [ERROR]", i.val)
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q... (line %d:%d)", i.val, i.line, i.pos)
	}
	return fmt.Sprintf("%q (line %d:%d)", i.val, i.line, i.pos)
}

// ref builds a source.Ref for this token, used by the parser to tag every syntax node it produces.
func (i token) ref(file string) source.Ref {
	return source.Ref{File: file, Line: i.line, Col: i.pos}
}

// ---------------------------
// ----- Lexer functions -----
// ---------------------------

// newLexer creates a lexer over src and starts its goroutine, ready to emit tokens on Next.
func newLexer(file, src string) *lexer {
	l := &lexer{
		input:       src,
		line:        1,
		startOnLine: 1,
		file:        file,
		items:       make(chan token, 2),
	}
	go l.run(lexGlobal)
	return l
}

// run drives the state machine until a state function returns nil (EOF or a fatal lex error).
func (l *lexer) run(start stateFunc) {
	defer close(l.items)
	for state := start; state != nil; {
		state = state(l)
	}
}

// Next returns the next token from the input, blocking until the lexer goroutine produces one.
func (l *lexer) Next() token {
	t, ok := <-l.items
	if !ok {
		return token{typ: tokEOF}
	}
	return t
}

// emit sends a token of type typ back to the caller.
func (l *lexer) emit(typ tokenType) {
	l.items <- token{
		typ:  typ,
		val:  l.input[l.start:l.pos],
		line: l.line,
		pos:  l.startOnLine,
	}
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

// backup steps back one rune. Must only be called once per call of next.
func (l *lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

// peek returns, but does not consume, the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// accept consumes the next rune if it is in the set of valid runes.
func (l *lexer) accept(valid string) bool {
	if strings.IndexRune(valid, l.next()) >= 0 {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the set of valid runes.
func (l *lexer) acceptRun(valid string) {
	for strings.IndexRune(valid, l.next()) >= 0 {
	}
	l.backup()
}

// errorf emits an error token and stops the state machine.
func (l *lexer) errorf(format string, args ...interface{}) stateFunc {
	l.items <- token{
		typ:  tokError,
		val:  fmt.Sprintf(format, args...),
		line: l.line,
		pos:  l.startOnLine,
	}
	return nil
}
