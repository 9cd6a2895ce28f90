package filter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ivoronin/sparkql/internal/version"
)

// TimestampFormat is the layout of values produced by time functions.
// The lexer accepts it back as a datetime literal.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// maxDays bounds days(n) so n*24h fits in a time.Duration.
const maxDays = 100000

// function is a built-in resolved to a literal at parse time.
type function struct {
	args   []TokenKind // expected argument kinds, in order
	result ValueType
	since  string // grammar version that introduced the function
	eval   func(now time.Time, args []string) (string, error)
}

var functions = map[string]function{
	"now": {
		result: TypeDatetime,
		since:  "1.0",
		eval: func(now time.Time, _ []string) (string, error) {
			return now.Format(TimestampFormat), nil
		},
	},
	"days": {
		args:   []TokenKind{TokenInteger},
		result: TypeDatetime,
		since:  "1.1",
		eval: func(now time.Time, args []string) (string, error) {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("days: invalid day count %q", args[0])
			}
			if n > maxDays || n < -maxDays {
				return "", fmt.Errorf("days: day count %d out of range [-%d, %d]", n, maxDays, maxDays)
			}
			return now.Add(time.Duration(n) * 24 * time.Hour).Format(TimestampFormat), nil
		},
	},
}

// lookupFunction returns the named function if it exists in the grammar.
func lookupFunction(name, grammar string) (function, bool) {
	fn, ok := functions[name]
	if !ok || !version.GreaterOrEqual(grammar, fn.since) {
		return function{}, false
	}
	return fn, true
}

// call checks the arguments and evaluates the function at now.
func (fn function) call(name string, now time.Time, args []Token) (string, error) {
	if len(args) != len(fn.args) {
		return "", fmt.Errorf("%s() takes %d argument(s), got %d", name, len(fn.args), len(args))
	}
	values := make([]string, len(args))
	for i, arg := range args {
		if arg.Kind != fn.args[i] {
			return "", fmt.Errorf("%s() argument %d must be %s, got %s %q", name, i+1, fn.args[i], arg.Kind, arg.Text)
		}
		values[i] = arg.Text
	}
	return fn.eval(now, values)
}
