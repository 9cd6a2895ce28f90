package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivoronin/sparkql/internal/filter"
	"github.com/ivoronin/sparkql/internal/output"
)

var parseOpts parseOptions

var parseCmd = &cobra.Command{
	Use:   "parse [filter]",
	Short: "Parse a filter expression",
	Long: `Parse a filter expression and print its clauses with their nesting level
and block group. The filter is read from stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	Example: `  sparkql parse "City Eq 'Fargo' Or (BathsFull Eq 1,2)"
  sparkql parse -j 'ListPrice Ge 150000.0 And OnMarketDate Ge days(-7)'
  echo "City Eq 'Fargo'" | sparkql parse`,
	RunE: runParse,
}

func init() {
	parseOpts.addFlags(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	opts, err := parseOpts.resolve(cmd)
	if err != nil {
		return err
	}

	text, err := readFilter(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	result := filter.Parse(text, opts.filterOptions()...)

	report := &output.Report{
		Filter:      text,
		Grammar:     opts.grammar,
		Timestamp:   time.Now(),
		ToolVersion: Version,
		Result:      result,
	}
	if err := printOutput(report, opts.format()); err != nil {
		return err
	}

	if opts.rejects(result) {
		os.Exit(ExitFilterError)
	}
	return nil
}

// readFilter returns the filter from args, or a single line from stdin.
func readFilter(stdin io.Reader, args []string) (string, error) {
	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read filter: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no filter given")
	}
	if strings.ContainsAny(text, "\r\n") {
		return "", fmt.Errorf("filter must be a single line (use check for files)")
	}
	return text, nil
}
