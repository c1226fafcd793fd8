package frontend

import "testing"

// collect drains a lexer started over src and returns every token it produces up to and including EOF.
func collect(t *testing.T, src string) []token {
	t.Helper()
	l := newLexer("t.jc", src)
	var toks []token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.typ == tokEOF || tok.typ == tokError {
			break
		}
	}
	return toks
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	toks := collect(t, "namespace foo { class Bar { } }")
	want := []tokenType{tokNamespace, tokIdentifier, tokLBrace, tokClass, tokIdentifier, tokLBrace, tokRBrace, tokRBrace, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(toks), toks)
	}
	for i1, w := range want {
		if toks[i1].typ != w {
			t.Errorf("token %d: expected %s, got %s", i1, w, toks[i1].typ)
		}
	}
}

func TestLexerQualifiedName(t *testing.T) {
	toks := collect(t, "a::b::c")
	want := []tokenType{tokIdentifier, tokColonColon, tokIdentifier, tokColonColon, tokIdentifier, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i1, w := range want {
		if toks[i1].typ != w {
			t.Errorf("token %d: expected %s, got %s", i1, w, toks[i1].typ)
		}
	}
}

func TestLexerNumberSuffixesAndRadix(t *testing.T) {
	toks := collect(t, "0x1Fu8 10 3.14 0b101i32")
	want := []tokenType{tokInteger, tokInteger, tokFloat, tokInteger, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(toks), toks)
	}
	for i1, w := range want {
		if toks[i1].typ != w {
			t.Errorf("token %d: expected %s, got %s", i1, w, toks[i1].typ)
		}
	}
}

func TestLexerStringAndCharLiterals(t *testing.T) {
	toks := collect(t, `"hello\n" 'a' '\''`)
	want := []tokenType{tokString, tokChar, tokChar, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(toks), toks)
	}
	if toks[0].val != `hello\n` {
		t.Errorf("expected string body %q, got %q", `hello\n`, toks[0].val)
	}
}

func TestLexerOperators(t *testing.T) {
	toks := collect(t, "a <= b && c != d || e << f >> g")
	var got []tokenType
	for _, tok := range toks {
		got = append(got, tok.typ)
	}
	want := []tokenType{tokIdentifier, tokLe, tokIdentifier, tokAndAnd, tokIdentifier, tokNe, tokIdentifier,
		tokOrOr, tokIdentifier, tokShl, tokIdentifier, tokShr, tokIdentifier, tokEOF}
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(got), got)
	}
	for i1, w := range want {
		if got[i1] != w {
			t.Errorf("token %d: expected %s, got %s", i1, w, got[i1])
		}
	}
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	toks := collect(t, `"unterminated`)
	if toks[len(toks)-1].typ != tokError {
		t.Fatalf("expected trailing error token, got %s", toks[len(toks)-1].typ)
	}
}

func TestLexerSkipsCommentsAndTracksLines(t *testing.T) {
	toks := collect(t, "a // comment\nb /* block\ncomment */ c")
	if len(toks) != 4 {
		t.Fatalf("expected 4 tokens (a, b, c, EOF), got %d (%v)", len(toks), toks)
	}
	if toks[1].line != 2 {
		t.Errorf("expected 'b' on line 2, got line %d", toks[1].line)
	}
	if toks[2].line != 3 {
		t.Errorf("expected 'c' on line 3, got line %d", toks[2].line)
	}
}
