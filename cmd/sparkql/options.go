package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivoronin/sparkql/internal/config"
	"github.com/ivoronin/sparkql/internal/filter"
	"github.com/ivoronin/sparkql/internal/output"
	"github.com/ivoronin/sparkql/internal/version"
)

// parseOptions are the flags shared by parse and check.
type parseOptions struct {
	json    bool
	grammar string
	strict  bool
}

func (o *parseOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.json, "json", "j", false, "Output in JSON format")
	cmd.Flags().StringVarP(&o.grammar, "grammar", "g", version.Current, "Grammar version (e.g., 1.0, current)")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "Reject filters with non-fatal errors too")
}

// resolve applies config file defaults to flags the user did not set.
func (o parseOptions) resolve(cmd *cobra.Command) (parseOptions, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return o, err
		}
		flags := cmd.Flags()
		if !flags.Changed("json") && cfg.Output != "" {
			format, err := output.ParseFormat(cfg.Output)
			if err != nil {
				return o, err
			}
			o.json = format == output.FormatJSON
		}
		if !flags.Changed("grammar") && cfg.Grammar != "" {
			o.grammar = cfg.Grammar
		}
		if !flags.Changed("strict") {
			o.strict = cfg.Strict
		}
	}
	if err := version.Validate(o.grammar); err != nil {
		return o, err
	}
	return o, nil
}

func (o parseOptions) format() output.Format {
	if o.json {
		return output.FormatJSON
	}
	return output.FormatText
}

// rejects reports whether the result should fail the command.
func (o parseOptions) rejects(r *filter.Result) bool {
	return r.HasFatalErrors() || (o.strict && r.HasErrors())
}

func (o parseOptions) filterOptions() []filter.Option {
	opts := []filter.Option{filter.WithGrammar(o.grammar)}
	if verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, filter.WithLogger(logger))
	}
	return opts
}

// printOutput writes formatted output followed by a newline, unless it is empty.
func printOutput(f output.Formatter, format output.Format) error {
	out, err := output.FormatOutput(f, format)
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}
