package filter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ivoronin/sparkql/internal/version"
)

type config struct {
	clock   func() time.Time
	grammar string
	logger  *slog.Logger
}

// Option customizes parsing.
type Option func(*config)

// WithClock sets the clock used to evaluate time functions.
func WithClock(clock func() time.Time) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithGrammar restricts parsing to the given grammar version.
// Functions introduced by later grammars are reported as unknown. A version
// that is not "current" or a released grammar fails the parse.
func WithGrammar(v string) Option {
	return func(cfg *config) {
		if v != "" {
			cfg.grammar = v
		}
	}
}

// WithLogger logs every recorded error at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Result is the outcome of parsing one filter.
type Result struct {
	Clauses []Clause
	Errors  []*Error
}

// HasErrors reports whether any error was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasFatalErrors reports whether any recorded error is fatal.
func (r *Result) HasFatalErrors() bool {
	return hasFatal(r.Errors)
}

// Parse parses a filter expression such as
//
//	City Eq 'Fargo' Or (BathsFull Eq 1,2 And ListPrice Ge 150000.0)
//
// It never fails outright: problems are returned in Result.Errors alongside
// every clause built before the first fatal error. Each call owns its state,
// so Parse is safe for concurrent use.
func Parse(text string, opts ...Option) *Result {
	cfg := &config{clock: time.Now, grammar: version.Current}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if err := version.Validate(cfg.grammar); err != nil {
		errs := errorList{logger: cfg.logger}
		errs.add(ErrInvalidGrammar, Token{Text: cfg.grammar}, "%v", err)
		return &Result{Clauses: []Clause{}, Errors: errs.errs}
	}

	tokens, lexErr := lex(text)
	s := &session{
		tokens:  tokens,
		now:     cfg.clock(),
		grammar: cfg.grammar,
		clauses: []Clause{},
		errs:    errorList{logger: cfg.logger},
		lexErr:  lexErr,
	}
	s.run()

	if cfg.logger != nil {
		cfg.logger.Debug("parsed filter", "clauses", len(s.clauses), "errors", len(s.errs.errs))
	}
	return &Result{Clauses: s.clauses, Errors: s.errs.errs}
}

// Parser parses filters and keeps the result of its most recent call.
// A Parser must not be shared between goroutines; use Parse for that.
type Parser struct {
	opts []Option
	last *Result
}

// NewParser creates a Parser applying opts to every call.
func NewParser(opts ...Option) *Parser {
	return &Parser{opts: opts}
}

// Parse parses text and returns its clauses. Errors are available from Errors.
func (p *Parser) Parse(text string) []Clause {
	p.last = Parse(text, p.opts...)
	return p.last.Clauses
}

// Errors returns the errors of the last Parse call, in the order found.
func (p *Parser) Errors() []*Error {
	if p.last == nil {
		return nil
	}
	return p.last.Errors
}

func (p *Parser) HasErrors() bool {
	return p.last != nil && p.last.HasErrors()
}

func (p *Parser) HasFatalErrors() bool {
	return p.last != nil && p.last.HasFatalErrors()
}

// session is the state of a single Parse call.
type session struct {
	tokens  []Token
	pos     int
	now     time.Time
	grammar string
	nest    nesting
	conj    Conjunction // pending conjunction for the next clause
	clauses []Clause
	errs    errorList
	lexErr  *Error
	halted  bool
}

func (s *session) peek() Token {
	return s.tokens[s.pos]
}

func (s *session) next() Token {
	tok := s.tokens[s.pos]
	if tok.Kind != TokenEOF {
		s.pos++
	}
	return tok
}

// fail records a fatal error and stops clause emission. Running into an end
// of input produced by a lexical error is not reported on its own; the
// lexical error already covers it.
func (s *session) fail(kind ErrorKind, tok Token, format string, args ...any) {
	if s.halted {
		return
	}
	s.halted = true
	if tok.Kind == TokenEOF && s.lexErr != nil {
		return
	}
	s.errs.add(kind, tok, format, args...)
}

// truncated reports whether the lexer stopped early at the current position.
func (s *session) truncated() bool {
	return s.peek().Kind == TokenEOF && s.lexErr != nil
}

func (s *session) run() {
	if s.peek().Kind == TokenEOF && s.lexErr == nil {
		s.fail(ErrSyntax, s.peek(), "empty filter")
	} else {
		s.filter()
		if !s.halted && s.peek().Kind == TokenRParen {
			s.closeGroup()
		}
	}
	// Drain whatever is left; the lexer has already reported on all of it.
	s.pos = len(s.tokens) - 1
	if s.lexErr != nil {
		s.errs.append(s.lexErr)
	}
}

// filter parses: term (conjunction term)*
// It returns at end of input, at a ')' closing the current group, or on a fatal error.
func (s *session) filter() {
	s.term()
	for !s.halted {
		tok := s.peek()
		switch tok.Kind {
		case TokenEOF, TokenRParen:
			return
		case TokenConjunction:
			s.next()
			if k := s.peek().Kind; k == TokenEOF || k == TokenRParen {
				if s.truncated() {
					s.halted = true
					return
				}
				s.fail(ErrSyntax, tok, "trailing conjunction %q", tok.Text)
				return
			}
			s.conj = conjunctions[tok.Text]
			s.term()
		case TokenIdentifier, TokenOperator:
			s.fail(ErrUnknownConjunction, tok, "unknown conjunction %q", tok.Text)
		default:
			s.fail(ErrSyntax, tok, "expected conjunction, found %s %q", tok.Kind, tok.Text)
		}
	}
}

// term parses: '(' filter ')' | clause
func (s *session) term() {
	tok := s.peek()
	switch tok.Kind {
	case TokenLParen:
		s.next()
		s.nest.open()
		if s.peek().Kind == TokenRParen {
			s.fail(ErrSyntax, s.peek(), "empty group")
			return
		}
		s.filter()
		if s.halted {
			return
		}
		if s.peek().Kind != TokenRParen {
			if s.truncated() {
				s.halted = true
				return
			}
			s.fail(ErrUnbalancedGrouping, tok, "unterminated group")
			return
		}
		s.closeGroup()
	case TokenIdentifier, TokenQuotedSegment:
		s.clause()
	case TokenRParen:
		if s.closeGroup() {
			s.fail(ErrSyntax, tok, "expected clause, found ')'")
		}
	case TokenEOF:
		s.fail(ErrSyntax, tok, "expected clause, found end of input")
	default:
		s.fail(ErrSyntax, tok, "expected field, found %s %q", tok.Kind, tok.Text)
	}
}

// closeGroup consumes a ')' and closes the innermost block.
// With no block open the ')' is unmatched, which is fatal.
func (s *session) closeGroup() bool {
	tok := s.next()
	if !s.nest.close() {
		s.fail(ErrUnbalancedGrouping, tok, "unmatched ')'")
		return false
	}
	return true
}

// clause parses: field operator value
func (s *session) clause() {
	c := Clause{
		Conjunction: s.conj,
		Level:       s.nest.level(),
		BlockGroup:  s.nest.group(),
	}
	s.conj = ConjNone

	if !s.field(&c) {
		return
	}

	op := s.next()
	switch op.Kind {
	case TokenOperator:
		c.Operator = operators[op.Text]
	case TokenEOF:
		s.fail(ErrSyntax, op, "missing operator after %s", c.Field)
		return
	default:
		s.fail(ErrUnknownOperator, op, "unknown operator %q", op.Text)
		return
	}

	if !s.value(&c) {
		return
	}
	s.clauses = append(s.clauses, c)
}

// field parses a bare identifier or a quoted custom field.
func (s *session) field(c *Clause) bool {
	first := s.next()
	if first.Kind == TokenIdentifier {
		c.Field = first.Text
		return true
	}

	parts := []Token{first}
	for s.peek().Kind == TokenDot {
		parts = append(parts, s.next())
		seg := s.next()
		if seg.Kind != TokenQuotedSegment {
			s.fail(ErrInvalidCustomField, seg, "expected quoted segment after '.', found %s", seg.Kind)
			return false
		}
		parts = append(parts, seg)
	}

	name, err := customField(parts)
	if err != nil {
		whole := first
		whole.Text = joinText(parts)
		s.fail(ErrInvalidCustomField, whole, "invalid custom field %s: %v", whole.Text, err)
		return false
	}
	c.Field = name
	c.CustomField = true
	return true
}

// value parses: literal (',' literal)* | '(' literal (',' literal)* ')'
func (s *session) value(c *Clause) bool {
	start := s.peek()
	var (
		items []string
		typ   ValueType
		ok    bool
		list  bool
	)

	if start.Kind == TokenLParen {
		s.next()
		list = true
		if s.peek().Kind == TokenRParen {
			s.fail(ErrInvalidValueList, start, "empty value list")
			return false
		}
		if items, typ, ok = s.literals(); !ok {
			return false
		}
		if closing := s.next(); closing.Kind != TokenRParen {
			s.fail(ErrInvalidValueList, closing, "unterminated value list")
			return false
		}
	} else {
		if items, typ, ok = s.literals(); !ok {
			return false
		}
		list = len(items) > 1
	}

	switch {
	case c.Operator == OpBetween && len(items) != 2:
		s.fail(ErrInvalidValueList, start, "%s needs exactly 2 values, got %d", c.Operator, len(items))
		return false
	case len(items) > 1 && !c.Operator.acceptsList():
		s.fail(ErrInvalidValueList, start, "%s does not accept multiple values", c.Operator)
		return false
	}

	c.Type = typ
	if list {
		c.Values = items
	} else {
		c.Value = items[0]
	}
	return true
}

func (s *session) literals() ([]string, ValueType, bool) {
	var (
		values []string
		typ    ValueType
	)
	for {
		v, t, ok := s.literal(len(values) > 0)
		if !ok {
			return nil, "", false
		}
		values = append(values, v)
		typ = widen(typ, t)
		if s.peek().Kind != TokenComma {
			return values, typ, true
		}
		s.next()
	}
}

// literal parses one value. Unrecognized words are kept verbatim with a
// non-fatal error.
func (s *session) literal(inList bool) (string, ValueType, bool) {
	tok := s.next()
	switch tok.Kind {
	case TokenInteger:
		return tok.Text, TypeInteger, true
	case TokenDecimal:
		return tok.Text, TypeDecimal, true
	case TokenBoolean:
		return tok.Text, TypeBoolean, true
	case TokenString:
		return tok.Text, TypeCharacter, true
	case TokenDate:
		typ, valid := dateType(tok.Text)
		if !valid {
			s.errs.add(ErrUnrecognizedValue, tok, "invalid %s %q", typ, tok.Text)
		}
		return tok.Text, typ, true
	case TokenFunction:
		return s.call(tok)
	case TokenIdentifier, TokenQuotedSegment:
		s.errs.add(ErrUnrecognizedValue, tok, "unrecognized value %q", tok.Text)
		return tok.Text, TypeUnknown, true
	case TokenEOF:
		kind := ErrSyntax
		if inList {
			kind = ErrInvalidValueList
		}
		s.fail(kind, tok, "missing value")
		return "", "", false
	default:
		if inList {
			s.fail(ErrInvalidValueList, tok, "expected value in list, found %s %q", tok.Kind, tok.Text)
		} else {
			s.fail(ErrSyntax, tok, "expected value, found %s %q", tok.Kind, tok.Text)
		}
		return "", "", false
	}
}

// call evaluates a function call whose name token has just been consumed.
func (s *session) call(name Token) (string, ValueType, bool) {
	fn, ok := lookupFunction(name.Text, s.grammar)
	if !ok {
		s.fail(ErrUnknownFunction, name, "unknown function %s()", name.Text)
		return "", "", false
	}

	s.next() // '(' follows a function token by construction
	var args []Token
	if s.peek().Kind == TokenRParen {
		s.next()
	} else {
		for {
			arg := s.next()
			if arg.Kind == TokenEOF {
				s.fail(ErrFunctionArguments, arg, "unterminated call to %s()", name.Text)
				return "", "", false
			}
			if !isLiteral(arg.Kind) {
				s.fail(ErrFunctionArguments, arg, "invalid argument to %s(): %s %q", name.Text, arg.Kind, arg.Text)
				return "", "", false
			}
			args = append(args, arg)
			sep := s.next()
			if sep.Kind == TokenRParen {
				break
			}
			if sep.Kind == TokenEOF {
				s.fail(ErrFunctionArguments, sep, "unterminated call to %s()", name.Text)
				return "", "", false
			}
			if sep.Kind != TokenComma {
				s.fail(ErrFunctionArguments, sep, "expected ',' or ')' in %s() arguments, found %s", name.Text, sep.Kind)
				return "", "", false
			}
		}
	}

	v, err := fn.call(name.Text, s.now, args)
	if err != nil {
		s.fail(ErrFunctionArguments, name, "%v", err)
		return "", "", false
	}
	return v, fn.result, true
}

func isLiteral(k TokenKind) bool {
	switch k {
	case TokenInteger, TokenDecimal, TokenBoolean, TokenString, TokenDate:
		return true
	default:
		return false
	}
}

var datetimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
}

// dateType returns the type of a date token and whether it is a real calendar value.
func dateType(text string) (ValueType, bool) {
	if !strings.Contains(text, "T") {
		_, err := time.Parse("2006-01-02", text)
		return TypeDate, err == nil
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, text); err == nil {
			return TypeDatetime, true
		}
	}
	return TypeDatetime, false
}

// widen merges the type of a list element into the list type.
func widen(list, elem ValueType) ValueType {
	switch {
	case list == "" || list == elem:
		return elem
	case list == TypeInteger && elem == TypeDecimal, list == TypeDecimal && elem == TypeInteger:
		return TypeDecimal
	default:
		return list
	}
}

func joinText(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
