package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseSimple(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		wantType ValueType
	}{
		{"Test Eq 10", "10", TypeInteger},
		{"Test Eq 10.0", "10.0", TypeDecimal},
		{"Test Eq true", "true", TypeBoolean},
		{"Test Eq 'false'", "'false'", TypeCharacter},
		{"Test Eq -3", "-3", TypeInteger},
		{"Test Ge 2011-05-17", "2011-05-17", TypeDate},
		{"Test Ge 2011-05-17T10:30:00Z", "2011-05-17T10:30:00Z", TypeDatetime},
		{`Test Eq 'it\'s'`, `'it\'s'`, TypeCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			if len(r.Clauses) != 1 {
				t.Fatalf("got %d clauses, want 1", len(r.Clauses))
			}
			c := r.Clauses[0]
			if c.Value != tt.want {
				t.Errorf("Value = %q, want %q", c.Value, tt.want)
			}
			if c.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", c.Type, tt.wantType)
			}
			if c.CustomField {
				t.Errorf("unexpected custom field: %+v", c)
			}
			if c.Field != "Test" {
				t.Errorf("Field = %q, want Test", c.Field)
			}
		})
	}
}

func TestParseConjunction(t *testing.T) {
	tests := []struct {
		input string
		want  []Conjunction
	}{
		{"Test Eq 10 And Test Ne 11", []Conjunction{ConjNone, ConjAnd}},
		{"Test Eq 10 Or Test Ne 11", []Conjunction{ConjNone, ConjOr}},
		{"Test Eq 10 Or Test Ne 11 And Test Ne 9", []Conjunction{ConjNone, ConjOr, ConjAnd}},
		{"Test Eq 10 Or (Test Ne 11 And Test Ne 9)", []Conjunction{ConjNone, ConjOr, ConjAnd}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			var got []Conjunction
			for _, c := range r.Clauses {
				got = append(got, c.Conjunction)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("conjunctions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseToughConjunction(t *testing.T) {
	r := Parse("Test Eq 10 Or Test Ne 11 And Test Ne 9")
	last := r.Clauses[len(r.Clauses)-1]
	if last.Value != "9" {
		t.Errorf("Value = %q, want 9", last.Value)
	}
	if last.Operator != OpNotEqual {
		t.Errorf("Operator = %q, want Ne", last.Operator)
	}
}

func TestParseGrouping(t *testing.T) {
	tests := []struct {
		input  string
		values []string
	}{
		{"(Test Eq 10)", []string{"10"}},
		{"(Test Eq 10 Or Test Ne 11)", []string{"10", "11"}},
		{"(Test Eq 10 Or (Test Ne 11))", []string{"10", "11"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			if len(r.Clauses) != len(tt.values) {
				t.Fatalf("got %d clauses, want %d", len(r.Clauses), len(tt.values))
			}
			for i, c := range r.Clauses {
				if c.Value != tt.values[i] {
					t.Errorf("clause %d Value = %q, want %q", i, c.Value, tt.values[i])
				}
			}
		})
	}
}

func TestParseMultiples(t *testing.T) {
	tests := []struct {
		input string
		want  []string
		typ   ValueType
	}{
		{"(Test Eq 10,11,12)", []string{"10", "11", "12"}, TypeInteger},
		{"Test Eq 10,11,10", []string{"10", "11", "10"}, TypeInteger},
		{"Test Ne ('a','b')", []string{"'a'", "'b'"}, TypeCharacter},
		{"Test Eq (7)", []string{"7"}, TypeInteger},
		{"Test Bt 1,5.5", []string{"1", "5.5"}, TypeDecimal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			if len(r.Clauses) != 1 {
				t.Fatalf("got %d clauses, want 1", len(r.Clauses))
			}
			c := r.Clauses[0]
			if !c.IsMulti() {
				t.Fatalf("expected multi-valued clause: %+v", c)
			}
			if !reflect.DeepEqual(c.Values, tt.want) {
				t.Errorf("Values = %v, want %v", c.Values, tt.want)
			}
			if c.Type != tt.typ {
				t.Errorf("Type = %q, want %q", c.Type, tt.typ)
			}
		})
	}
}

func TestParseNesting(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		levels []int
		groups []int
	}{
		{
			name:   "single group",
			input:  "City Eq 'Fargo' Or (BathsFull Eq 1 Or BathsFull Eq 2) Or City Eq 'Moorhead' Or City Eq 'Dilworth'",
			levels: []int{0, 1, 1, 0, 0},
			groups: []int{0, 1, 1, 0, 0},
		},
		{
			name:   "multilevel",
			input:  "(City Eq 'Fargo' And (BathsFull Eq 1 Or BathsFull Eq 2)) Or City Eq 'Moorhead' Or City Eq 'Dilworth'",
			levels: []int{1, 2, 2, 0, 0},
			groups: []int{1, 2, 2, 0, 0},
		},
		{
			name:   "sibling groups",
			input:  "((MlsStatus Eq 'A') Or (MlsStatus Eq 'D' And CloseDate Ge 2011-05-17)) And ListPrice Ge 150000.0 And PropertyType Eq 'A'",
			levels: []int{2, 2, 2, 0, 0},
			groups: []int{2, 3, 3, 0, 0},
		},
		{
			name:   "sibling groups reversed",
			input:  "ListPrice Ge 150000.0 And PropertyType Eq 'A' And ((MlsStatus Eq 'A') Or (MlsStatus Eq 'D' And CloseDate Ge 2011-05-17))",
			levels: []int{0, 0, 2, 2, 2},
			groups: []int{0, 0, 2, 3, 3},
		},
		{
			name:   "group after group",
			input:  "(A Eq 1) And (B Eq 2) And C Eq 3",
			levels: []int{1, 1, 0},
			groups: []int{1, 2, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			var levels, groups []int
			for _, c := range r.Clauses {
				levels = append(levels, c.Level)
				groups = append(groups, c.BlockGroup)
			}
			if !reflect.DeepEqual(levels, tt.levels) {
				t.Errorf("levels = %v, want %v", levels, tt.levels)
			}
			if !reflect.DeepEqual(groups, tt.groups) {
				t.Errorf("block groups = %v, want %v", groups, tt.groups)
			}
		})
	}
}

func TestParseReservedWords(t *testing.T) {
	tests := []struct {
		input string
		field string
	}{
		{"OrOrOr Eq true", "OrOrOr"},
		{"Equador Eq true", "Equador"},
		{"Oregon Ge 10", "Oregon"},
		{"AndOr Lt 1", "AndOr"},
		{"eq Eq 1", "eq"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			if len(r.Clauses) != 1 || r.Clauses[0].Field != tt.field {
				t.Errorf("clauses = %+v, want field %q", r.Clauses, tt.field)
			}
		})
	}
}

func TestParseCustomField(t *testing.T) {
	r := Parse(`"General Property Description"."Taxes" Lt 500.0`)
	if r.HasErrors() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	c := r.Clauses[0]
	if c.Field != `"General Property Description"."Taxes"` {
		t.Errorf("Field = %s", c.Field)
	}
	if !c.CustomField {
		t.Error("CustomField = false, want true")
	}
	if c.Value != "500.0" {
		t.Errorf("Value = %q, want 500.0", c.Value)
	}
}

func TestParseValidCustomFields(t *testing.T) {
	tests := []string{
		`"General Property Description"."Taxes$" Lt 500.0`,
		`"General Property Desc'"."Taxes" Lt 500.0`,
		`"General Property Description"."Taxes" Lt 500.0`,
		`"General 'Property' Description"."Taxes" Lt 500.0`,
		`"General Property Description"."Taxes #" Lt 500.0`,
		`"General$Description"."Taxes" Lt 500.0`,
		`" a "." b " Lt 500.0`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			r := Parse(input)
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			if !r.Clauses[0].CustomField {
				t.Errorf("expected custom field: %+v", r.Clauses[0])
			}
		})
	}
}

func TestParseInvalidCustomFields(t *testing.T) {
	tests := []string{
		`"$General Property Description"."Taxes" Lt 500.0`,
		`"General Property Description"."$Taxes" Lt 500.0`,
		`"General Property Description"."Tax.es" Lt 500.0`,
		`"General Property Description".".Taxes" Lt 500.0`,
		`"General Property Description".".Taxes"."SUB" Lt 500.0`,
		`"General Property Description"."Taxes"."SUB" Lt 500.0`,
		`"General.Description"."Taxes" Lt 500.0`,
		`""."" Lt 500.0`,
		`"Taxes" Lt 500.0`,
		`"General". Lt 500.0`,
		`"General" . "Taxes" Lt 500.0`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			r := Parse(input)
			if !r.HasFatalErrors() {
				t.Fatalf("expected fatal error, got clauses %+v", r.Clauses)
			}
			if r.Errors[0].Kind != ErrInvalidCustomField {
				t.Errorf("Kind = %v, want %v", r.Errors[0].Kind, ErrInvalidCustomField)
			}
			if len(r.Clauses) != 0 {
				t.Errorf("got %d clauses, want 0", len(r.Clauses))
			}
		})
	}
}

func TestParseUnrecognizedValue(t *testing.T) {
	tests := []struct {
		input   string
		clauses int
		value   string
	}{
		{"Test Eq DERP", 1, "DERP"},
		{"Test Eq DERP And Other Eq 1", 2, "DERP"},
		{`Test Eq "quoted"`, 1, `"quoted"`},
		{"Test Eq 2011-13-45", 1, "2011-13-45"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if !r.HasErrors() {
				t.Fatal("expected an error")
			}
			if r.HasFatalErrors() {
				t.Fatalf("unexpected fatal error: %v", r.Errors)
			}
			if r.Errors[0].Kind != ErrUnrecognizedValue {
				t.Errorf("Kind = %v, want %v", r.Errors[0].Kind, ErrUnrecognizedValue)
			}
			if len(r.Clauses) != tt.clauses {
				t.Fatalf("got %d clauses, want %d", len(r.Clauses), tt.clauses)
			}
			if r.Clauses[0].Value != tt.value {
				t.Errorf("Value = %q, want %q", r.Clauses[0].Value, tt.value)
			}
		})
	}
}

func TestParseFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    ErrorKind
		clauses int
	}{
		{"unknown operator", "City IsLikeA 'Town'", ErrUnknownOperator, 0},
		{"unknown operator after clause", "City Eq 'A' Or City IsLikeA 'Town' Or City Eq 'B'", ErrUnknownOperator, 1},
		{"unknown conjunction", "City Eq 'A' Xor City Eq 'B'", ErrUnknownConjunction, 1},
		{"unterminated group", "(City Eq 'Fargo'", ErrUnbalancedGrouping, 1},
		{"unmatched close", "City Eq 'Fargo')", ErrUnbalancedGrouping, 1},
		{"leading close", ") City Eq 'Fargo'", ErrUnbalancedGrouping, 0},
		{"trailing conjunction", "City Eq 'Fargo' And", ErrSyntax, 1},
		{"trailing conjunction in group", "(City Eq 'Fargo' Or )", ErrSyntax, 1},
		{"empty filter", "", ErrSyntax, 0},
		{"blank filter", "   ", ErrSyntax, 0},
		{"empty group", "()", ErrSyntax, 0},
		{"missing operator", "City", ErrSyntax, 0},
		{"missing value", "City Eq", ErrSyntax, 0},
		{"operator as value", "City Eq Ne", ErrSyntax, 0},
		{"operator as field", "Eq Eq 1", ErrSyntax, 0},
		{"dangling list", "City Eq 1,", ErrInvalidValueList, 0},
		{"unterminated list", "City Eq (1,2", ErrInvalidValueList, 0},
		{"empty list", "City Eq ()", ErrInvalidValueList, 0},
		{"list for Gt", "City Gt 1,2", ErrInvalidValueList, 0},
		{"between one value", "City Bt 1", ErrInvalidValueList, 0},
		{"between three values", "City Bt 1,2,3", ErrInvalidValueList, 0},
		{"unknown function", "City Eq yesterday()", ErrUnknownFunction, 0},
		{"days arity", "City Eq days()", ErrFunctionArguments, 0},
		{"days type", "City Eq days('x')", ErrFunctionArguments, 0},
		{"days decimal", "City Eq days(1.5)", ErrFunctionArguments, 0},
		{"days too far ahead", "City Ge days(200000)", ErrFunctionArguments, 0},
		{"days too far back", "City Ge days(-200000)", ErrFunctionArguments, 0},
		{"days overflows int", "City Ge days(99999999999999999999)", ErrFunctionArguments, 0},
		{"unmatched close after group", "(City Eq 'Fargo'))", ErrUnbalancedGrouping, 1},
		{"now arity", "City Eq now(1)", ErrFunctionArguments, 0},
		{"unterminated call", "City Eq now(", ErrFunctionArguments, 0},
		{"unrecognized character", "City Eq 'A' @", ErrLexical, 1},
		{"unterminated string", "City Eq 'Fargo", ErrLexical, 0},
		{"missing separator", "City Eq 10And B Eq 2", ErrLexical, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Parse(tt.input)
			if !r.HasErrors() || !r.HasFatalErrors() {
				t.Fatalf("expected fatal error, got clauses %+v", r.Clauses)
			}
			if r.Errors[0].Kind != tt.kind {
				t.Errorf("Kind = %v, want %v (%v)", r.Errors[0].Kind, tt.kind, r.Errors)
			}
			if len(r.Clauses) != tt.clauses {
				t.Errorf("got %d clauses, want %d", len(r.Clauses), tt.clauses)
			}
		})
	}
}

func TestParseLexicalErrorReportedOnce(t *testing.T) {
	r := Parse("City Eq 'Fargo")
	if len(r.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(r.Errors), r.Errors)
	}
	e := r.Errors[0]
	if e.Kind != ErrLexical {
		t.Errorf("Kind = %v, want lexical", e.Kind)
	}
	if e.Column != 9 {
		t.Errorf("Column = %d, want 9", e.Column)
	}
}

func TestParseErrorsInTextOrder(t *testing.T) {
	r := Parse("A Eq DERP And B IsLikeA 1 @")
	var kinds []ErrorKind
	for _, e := range r.Errors {
		kinds = append(kinds, e.Kind)
	}
	want := []ErrorKind{ErrUnrecognizedValue, ErrUnknownOperator, ErrLexical}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestParseFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"OriginalEntryTimestamp Ge days(-7)", "2025-01-08T10:30:00.000000Z"},
		{"OriginalEntryTimestamp Ge days(2)", "2025-01-17T10:30:00.000000Z"},
		{"City Eq now()", "2025-01-15T10:30:00.000000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input, WithClock(fixedClock))
			if r.HasErrors() {
				t.Fatalf("unexpected errors: %v", r.Errors)
			}
			c := r.Clauses[0]
			if c.Value != tt.want {
				t.Errorf("Value = %q, want %q", c.Value, tt.want)
			}
			if c.Type != TypeDatetime {
				t.Errorf("Type = %q, want datetime", c.Type)
			}
		})
	}
}

func TestParseFunctionDaysWallClock(t *testing.T) {
	start := time.Now()
	r := Parse("OriginalEntryTimestamp Ge days(-7)")
	if r.HasErrors() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	got, err := time.Parse(TimestampFormat, r.Clauses[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	diff := got.Sub(start.Add(-7 * 24 * time.Hour))
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("days(-7) off by %v", diff)
	}
}

func TestParseFunctionNowWallClock(t *testing.T) {
	start := time.Now()
	r := Parse("City Eq now()")
	if r.HasErrors() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	got, err := time.Parse(TimestampFormat, r.Clauses[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	diff := got.Sub(start)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("now() off by %v", diff)
	}
}

func TestParseFunctionResultReparses(t *testing.T) {
	r := Parse("City Eq now()", WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	}))
	again := Parse("City Eq " + r.Clauses[0].Value)
	if again.HasErrors() {
		t.Fatalf("timestamp %q does not reparse: %v", r.Clauses[0].Value, again.Errors)
	}
	if again.Clauses[0].Type != TypeDatetime {
		t.Errorf("Type = %q, want datetime", again.Clauses[0].Type)
	}
}

func TestParseGrammar(t *testing.T) {
	tests := []struct {
		grammar string
		input   string
		wantErr bool
	}{
		{"1.0", "A Ge now()", false},
		{"1.0", "A Ge days(-1)", true},
		{"1.1", "A Ge days(-1)", false},
		{"current", "A Ge days(-1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.grammar+" "+tt.input, func(t *testing.T) {
			r := Parse(tt.input, WithGrammar(tt.grammar))
			if r.HasErrors() != tt.wantErr {
				t.Fatalf("HasErrors = %v, want %v: %v", r.HasErrors(), tt.wantErr, r.Errors)
			}
			if tt.wantErr && r.Errors[0].Kind != ErrUnknownFunction {
				t.Errorf("Kind = %v, want unknown function", r.Errors[0].Kind)
			}
		})
	}
}

func TestParseInvalidGrammar(t *testing.T) {
	for _, grammar := range []string{"garbage", "9.9", "v1.x"} {
		t.Run(grammar, func(t *testing.T) {
			r := Parse("A Ge days(-1)", WithGrammar(grammar))
			if !r.HasFatalErrors() {
				t.Fatalf("expected fatal error, got clauses %+v", r.Clauses)
			}
			if len(r.Errors) != 1 || r.Errors[0].Kind != ErrInvalidGrammar {
				t.Errorf("Errors = %v, want one invalid grammar error", r.Errors)
			}
			if r.Errors[0].Token != grammar {
				t.Errorf("Token = %q, want %q", r.Errors[0].Token, grammar)
			}
			if len(r.Clauses) != 0 {
				t.Errorf("got %d clauses, want 0", len(r.Clauses))
			}
		})
	}
}

func TestParseValidClauseCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"A Eq 1", 1},
		{"A Eq 1 And B Ne 'x' Or C Gt 2.5", 3},
		{"((A Eq 1) And ((B Lt 2) Or C Le 3)) Or D Ge 2020-01-01", 4},
		{"(((A Eq true)))", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := Parse(tt.input)
			if r.HasFatalErrors() {
				t.Fatalf("unexpected fatal errors: %v", r.Errors)
			}
			if len(r.Clauses) != tt.want {
				t.Errorf("got %d clauses, want %d", len(r.Clauses), tt.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		"((MlsStatus Eq 'A') Or (MlsStatus Eq 'D' And CloseDate Ge days(-3))) And ListPrice Ge 150000.0",
		"City IsLikeA 'Town'",
		"Test Eq DERP Or Test Eq 1,2,3",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			a := NewParser(WithClock(fixedClock))
			b := NewParser(WithClock(fixedClock))
			if got, want := a.Parse(input), b.Parse(input); !reflect.DeepEqual(got, want) {
				t.Errorf("clauses differ:\n%+v\n%+v", got, want)
			}
			if !reflect.DeepEqual(a.Errors(), b.Errors()) {
				t.Errorf("errors differ:\n%v\n%v", a.Errors(), b.Errors())
			}
		})
	}
}

func TestParser(t *testing.T) {
	p := NewParser()
	if p.HasErrors() || p.HasFatalErrors() || p.Errors() != nil {
		t.Fatal("new parser should report no errors")
	}

	p.Parse("City IsLikeA 'Town'")
	if !p.HasErrors() {
		t.Error("HasErrors = false, want true")
	}
	if !p.HasFatalErrors() {
		t.Error("HasFatalErrors = false, want true")
	}

	clauses := p.Parse("City Eq 'Town'")
	if p.HasErrors() {
		t.Errorf("errors from previous call leaked: %v", p.Errors())
	}
	if len(clauses) != 1 {
		t.Errorf("got %d clauses, want 1", len(clauses))
	}
}

func TestParseConcurrent(t *testing.T) {
	const input = "(A Eq 1 Or (B Eq 2)) And C Eq 3"
	want := Parse(input).Clauses

	done := make(chan []Clause)
	for i := 0; i < 8; i++ {
		go func() { done <- Parse(input).Clauses }()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Errorf("concurrent parse = %+v, want %+v", got, want)
		}
	}
}
