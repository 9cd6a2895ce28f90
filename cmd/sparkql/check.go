package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivoronin/sparkql/internal/filter"
	"github.com/ivoronin/sparkql/internal/output"
)

var checkOpts parseOptions

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check a file of filter expressions",
	Long: `Parse one filter per line and report which lines are valid.
Blank lines and lines starting with # are skipped. Reads stdin when no file
is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	Example: `  sparkql check saved-searches.txt
  sparkql check --strict -j saved-searches.txt
  cat saved-searches.txt | sparkql check`,
	RunE: runCheck,
}

func init() {
	checkOpts.addFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := checkOpts.resolve(cmd)
	if err != nil {
		return err
	}

	r := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open filter file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	list, err := checkFilters(r, opts.filterOptions())
	if err != nil {
		return err
	}
	if err := printOutput(list, opts.format()); err != nil {
		return err
	}

	if list.Failed(opts.strict) {
		os.Exit(ExitFilterError)
	}
	return nil
}

// checkFilters parses every non-blank, non-comment line of r.
func checkFilters(r io.Reader, opts []filter.Option) (*output.CheckList, error) {
	list := &output.CheckList{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		list.Entries = append(list.Entries, output.CheckEntry{
			Line:   line,
			Filter: text,
			Result: filter.Parse(text, opts...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	return list, nil
}
