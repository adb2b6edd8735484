package compiler

import (
	"strings"
	"testing"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := NewLexer(src).ScanAll()
	if err != nil {
		t.Fatalf("ScanAll(%q): %v", src, err)
	}
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexOperators(t *testing.T) {
	tokens := scan(t, "+ - * / % ( ) [ ] { } , : > >= < <= == != = -> && ||")
	want := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenLParen, TokenRParen, TokenLBracket, TokenRBracket,
		TokenLBrace, TokenRBrace, TokenComma, TokenColon,
		TokenGt, TokenGe, TokenLt, TokenLe, TokenEqEq, TokenBangEq,
		TokenAssign, TokenArrow, TokenAnd, TokenOr, TokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(got), len(want), tokens)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexArrowMerging(t *testing.T) {
	tokens := scan(t, "a -> b - > c")
	// `- >` with a space stays MINUS GT.
	want := []TokenType{TokenIdentifier, TokenArrow, TokenIdentifier,
		TokenMinus, TokenGt, TokenIdentifier, TokenEOF}
	got := tokenTypes(tokens)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"3.25", 3.25},
		{"0xFF", 255},
		{"0X10", 16},
		{"0x11223344", 287454020},
	}
	for _, tt := range tests {
		tokens := scan(t, tt.src)
		if tokens[0].Type != TokenNumber || tokens[0].Num != tt.want {
			t.Errorf("lex(%q) = %v (num %v), want %v", tt.src, tokens[0].Type, tokens[0].Num, tt.want)
		}
	}
}

func TestLexDotOnlyBeforeDigit(t *testing.T) {
	// `5.foo` — the dot is a sentence terminator, not a fraction.
	tokens := scan(t, "5.foo")
	if tokens[0].Type != TokenNumber || tokens[0].Num != 5 {
		t.Fatalf("first token = %v", tokens[0])
	}
	if tokens[1].Type != TokenIdentifier || tokens[1].Lexeme != "foo" {
		t.Errorf("dot must be silently ignored, got %v", tokens[1])
	}
}

func TestLexHexOutOfRange(t *testing.T) {
	if _, err := NewLexer("0xFFFFFFFFFFFFFFFFF").ScanAll(); err == nil {
		t.Error("17-digit hex literal must be fatal")
	}
}

func TestLexStrings(t *testing.T) {
	tokens := scan(t, `"hello world"`)
	if tokens[0].Type != TokenString || tokens[0].Str != "hello world" {
		t.Fatalf("string token = %+v", tokens[0])
	}
}

func TestLexStringWithNewline(t *testing.T) {
	tokens := scan(t, "\"a\nb\" x")
	if tokens[0].Str != "a\nb" {
		t.Errorf("embedded newline lost: %q", tokens[0].Str)
	}
	// The line counter advanced inside the string.
	if tokens[1].Line != 2 {
		t.Errorf("token after multiline string at line %d, want 2", tokens[1].Line)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"oops`).ScanAll()
	if err == nil {
		t.Fatal("unterminated string must be fatal")
	}
	if err.Kind != LexError {
		t.Errorf("kind = %v, want LexError", err.Kind)
	}
}

func TestLexComments(t *testing.T) {
	tokens := scan(t, "a // comment\nb /* block\nspanning */ c")
	want := []string{"a", "b", "c"}
	var idents []string
	for _, tok := range tokens {
		if tok.Type == TokenIdentifier {
			idents = append(idents, tok.Lexeme)
		}
	}
	if len(idents) != len(want) {
		t.Fatalf("identifiers = %v", idents)
	}
	// Block comment updated the line counter.
	if tokens[2].Line != 3 {
		t.Errorf("token after block comment at line %d, want 3", tokens[2].Line)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	if _, err := NewLexer("a /* never closed").ScanAll(); err == nil {
		t.Error("unterminated block comment must be fatal")
	}
}

func TestLexSemicolonColumnOne(t *testing.T) {
	tokens := scan(t, "; whole line comment\nx ; y")
	// Column-1 semicolon eats its line; mid-line semicolon is a token.
	if tokens[0].Lexeme != "x" {
		t.Fatalf("tokens = %v", tokens)
	}
	if tokens[1].Type != TokenSemicolon {
		t.Errorf("mid-line ';' = %v, want SEMICOLON", tokens[1].Type)
	}
}

func TestLexSingleBarFatalWithHint(t *testing.T) {
	_, err := NewLexer("a | b").ScanAll()
	if err == nil {
		t.Fatal("single '|' must be fatal")
	}
	if want := "did you mean ||?"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q must carry the hint %q", err.Error(), want)
	}
}

func TestLexAndOrWords(t *testing.T) {
	tokens := scan(t, "a and b or c")
	want := []TokenType{TokenIdentifier, TokenAnd, TokenIdentifier, TokenOr, TokenIdentifier, TokenEOF}
	got := tokenTypes(tokens)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexKeywordsStayIdentifiers(t *testing.T) {
	for _, word := range []string{"if", "while", "do", "end", "let", "set", "print", "fn"} {
		tokens := scan(t, word)
		if tokens[0].Type != TokenIdentifier {
			t.Errorf("%q lexed as %v; keywords are recognised by the parser", word, tokens[0].Type)
		}
	}
}

func TestLexPositions(t *testing.T) {
	tokens := scan(t, "ab cd\n  ef")
	checks := []struct {
		idx       int
		line, col int
	}{
		{0, 1, 1}, {1, 1, 4}, {2, 2, 3},
	}
	for _, chk := range checks {
		tok := tokens[chk.idx]
		if tok.Line != chk.line || tok.Col != chk.col {
			t.Errorf("token %d at %d:%d, want %d:%d", chk.idx, tok.Line, tok.Col, chk.line, chk.col)
		}
	}
}

func TestLexPositionOffsets(t *testing.T) {
	tokens, err := NewLexerAt("x + 1", 7, 5).ScanAll()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Line != 7 || tokens[0].Col != 5 {
		t.Errorf("offset lexer start = %d:%d, want 7:5", tokens[0].Line, tokens[0].Col)
	}
	if tokens[1].Col != 7 {
		t.Errorf("second token col = %d, want 7", tokens[1].Col)
	}
}

func TestLexUnknownByteFatal(t *testing.T) {
	_, err := NewLexer("a $ b").ScanAll()
	if err == nil {
		t.Fatal("unknown byte must be fatal")
	}
	if err.Line != 1 || err.Col != 3 {
		t.Errorf("error at %d:%d, want 1:3", err.Line, err.Col)
	}
}
