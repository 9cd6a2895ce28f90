package filter

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind is the type of a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdentifier
	TokenQuotedSegment
	TokenInteger
	TokenDecimal
	TokenBoolean
	TokenString
	TokenDate
	TokenOperator
	TokenConjunction
	TokenFunction
	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIdentifier:
		return "identifier"
	case TokenQuotedSegment:
		return "quoted segment"
	case TokenInteger:
		return "integer"
	case TokenDecimal:
		return "decimal"
	case TokenBoolean:
		return "boolean"
	case TokenString:
		return "string"
	case TokenDate:
		return "date"
	case TokenOperator:
		return "operator"
	case TokenConjunction:
		return "conjunction"
	case TokenFunction:
		return "function"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenDot:
		return "'.'"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is a lexical token with its source text.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int // byte offset in input
	Column int // 1-based
}

// atom reports whether the token is word-like and must be separated from
// neighbouring atoms.
func (t Token) atom() bool {
	switch t.Kind {
	case TokenIdentifier, TokenQuotedSegment, TokenInteger, TokenDecimal, TokenBoolean,
		TokenString, TokenDate, TokenOperator, TokenConjunction, TokenFunction:
		return true
	default:
		return false
	}
}

func (t Token) end() int {
	return t.Offset + len(t.Text)
}

// Regular expressions here are RE2, so matching is linear and never backtracks.
// Ident is greedy: "Oregon" is one identifier, keywords are classified afterwards
// by whole-token lookup.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?`},
	{Name: "Decimal", Pattern: `-?\d+\.\d+`},
	{Name: "Integer", Pattern: `-?\d+`},
	{Name: "String", Pattern: `'(\\.|[^'\\])*'`},
	{Name: "Quoted", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),.]`},
})

var (
	symbols    = filterLexer.Symbols()
	symDate    = symbols["Date"]
	symDecimal = symbols["Decimal"]
	symInteger = symbols["Integer"]
	symString  = symbols["String"]
	symQuoted  = symbols["Quoted"]
	symIdent   = symbols["Ident"]
	symPunct   = symbols["Punct"]
)

var punctuation = map[string]TokenKind{
	"(": TokenLParen,
	")": TokenRParen,
	",": TokenComma,
	".": TokenDot,
}

// lex tokenizes text in a single forward pass. The returned slice always ends
// with an EOF token. Lexing stops at the first unrecognizable input; the
// returned error describes it and the tokens read so far are kept.
func lex(text string) ([]Token, *Error) {
	l, err := filterLexer.LexString("", text)
	if err != nil {
		return []Token{{Kind: TokenEOF, Offset: len(text)}}, &Error{Kind: ErrLexical, Message: err.Error()}
	}

	var tokens []Token
	stop := func(offset, column int, fragment, msg string) ([]Token, *Error) {
		tokens = append(tokens, Token{Kind: TokenEOF, Offset: offset, Column: column})
		return tokens, &Error{Kind: ErrLexical, Token: fragment, Message: msg, Column: column}
	}

	for {
		raw, err := l.Next()
		if err != nil {
			var lerr *lexer.Error
			if errors.As(err, &lerr) {
				return stop(lerr.Pos.Offset, lerr.Pos.Column, fragment(text, lerr.Pos.Offset),
					fmt.Sprintf("unrecognized input %q", fragment(text, lerr.Pos.Offset)))
			}
			return stop(len(text), 0, "", err.Error())
		}
		if raw.EOF() {
			tokens = append(tokens, Token{Kind: TokenEOF, Offset: raw.Pos.Offset, Column: raw.Pos.Column})
			return tokens, nil
		}

		tok := Token{Kind: classify(raw), Text: raw.Value, Offset: raw.Pos.Offset, Column: raw.Pos.Column}

		if n := len(tokens); n > 0 {
			prev := &tokens[n-1]
			if prev.atom() && tok.atom() && prev.end() == tok.Offset {
				return stop(prev.Offset, prev.Column, prev.Text+tok.Text,
					fmt.Sprintf("missing separator in %q", prev.Text+tok.Text))
			}
			// An identifier touching '(' is a function call.
			if prev.Kind == TokenIdentifier && tok.Kind == TokenLParen && prev.end() == tok.Offset {
				prev.Kind = TokenFunction
			}
		}
		tokens = append(tokens, tok)
	}
}

func classify(raw lexer.Token) TokenKind {
	switch raw.Type {
	case symDate:
		return TokenDate
	case symDecimal:
		return TokenDecimal
	case symInteger:
		return TokenInteger
	case symString:
		return TokenString
	case symQuoted:
		return TokenQuotedSegment
	case symPunct:
		return punctuation[raw.Value]
	case symIdent:
		if _, ok := operators[raw.Value]; ok {
			return TokenOperator
		}
		if _, ok := conjunctions[raw.Value]; ok {
			return TokenConjunction
		}
		if raw.Value == "true" || raw.Value == "false" {
			return TokenBoolean
		}
		return TokenIdentifier
	}
	return TokenIdentifier
}

// fragment returns a short sample of text starting at offset.
func fragment(text string, offset int) string {
	if offset >= len(text) {
		return ""
	}
	sample := []rune(text[offset:])
	if len(sample) > 16 {
		return string(sample[:16]) + "..."
	}
	return string(sample)
}
