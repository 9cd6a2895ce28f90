// Package filter parses filter expressions into a flat, ordered list of clauses.
//
// Grouping is not returned as a tree. Every clause carries the nesting depth it
// was found at (Level) and the id of its innermost enclosing parenthesized block
// (BlockGroup); consumers rebuild groups from runs of equal BlockGroup.
package filter

import "encoding/json"

// Operator is a comparison operator.
type Operator string

const (
	OpEqual        Operator = "Eq"
	OpNotEqual     Operator = "Ne"
	OpGreater      Operator = "Gt"
	OpGreaterEqual Operator = "Ge"
	OpLess         Operator = "Lt"
	OpLessEqual    Operator = "Le"
	OpBetween      Operator = "Bt" // range, exactly two values
)

var operators = map[string]Operator{
	"Eq": OpEqual,
	"Ne": OpNotEqual,
	"Gt": OpGreater,
	"Ge": OpGreaterEqual,
	"Lt": OpLess,
	"Le": OpLessEqual,
	"Bt": OpBetween,
}

// acceptsList reports whether the operator may take more than one value.
func (o Operator) acceptsList() bool {
	switch o {
	case OpEqual, OpNotEqual, OpBetween:
		return true
	default:
		return false
	}
}

// Conjunction joins a clause to the one before it.
type Conjunction string

const (
	ConjNone Conjunction = ""
	ConjAnd  Conjunction = "And"
	ConjOr   Conjunction = "Or"
)

var conjunctions = map[string]Conjunction{
	"And": ConjAnd,
	"Or":  ConjOr,
}

// ValueType is the literal type of a clause value.
type ValueType string

const (
	TypeInteger   ValueType = "integer"
	TypeDecimal   ValueType = "decimal"
	TypeBoolean   ValueType = "boolean"
	TypeCharacter ValueType = "character"
	TypeDate      ValueType = "date"
	TypeDatetime  ValueType = "datetime"
	TypeUnknown   ValueType = "unknown"
)

// Clause is a single field/operator/value comparison.
type Clause struct {
	Field       string
	CustomField bool
	Operator    Operator
	Value       string   // set for single-valued clauses
	Values      []string // set for multi-valued clauses, in textual order
	Type        ValueType
	Conjunction Conjunction // ConjNone on the first clause
	Level       int
	BlockGroup  int
}

// IsMulti reports whether the clause was written with a comma-separated value list.
func (c Clause) IsMulti() bool {
	return c.Values != nil
}

// MarshalJSON encodes value as a string or, for multi-valued clauses, an array.
func (c Clause) MarshalJSON() ([]byte, error) {
	var value any = c.Value
	if c.IsMulti() {
		value = c.Values
	}
	return json.Marshal(struct {
		Field       string      `json:"field"`
		CustomField bool        `json:"custom_field"`
		Operator    Operator    `json:"operator"`
		Value       any         `json:"value"`
		Type        ValueType   `json:"type"`
		Conjunction Conjunction `json:"conjunction,omitempty"`
		Level       int         `json:"level"`
		BlockGroup  int         `json:"block_group"`
	}{
		Field:       c.Field,
		CustomField: c.CustomField,
		Operator:    c.Operator,
		Value:       value,
		Type:        c.Type,
		Conjunction: c.Conjunction,
		Level:       c.Level,
		BlockGroup:  c.BlockGroup,
	})
}
