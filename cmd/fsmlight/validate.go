package main

import (
	"io"

	"github.com/aretw0/fsmlight/internal/presentation/tui"
	"github.com/aretw0/fsmlight/internal/validator"
	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a definition file for consistency",
	Long: `Loads the definition, registers every state and finalizes the graph. With --strict every
output must be accepted by exactly one state. Unreachable states and outputs without a
single acceptor are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return runValidate(cmd.OutOrStdout(), args[0], strict)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Require every output to have exactly one acceptor")
}

func runValidate(w io.Writer, path string, strict bool) error {
	p := tui.NewPrinter(w)

	def, err := definition.LoadFile(path)
	if err != nil {
		p.Error("%v", err)
		return err
	}

	opts := []definition.BuildOption{definition.WithLogger(logger)}
	if strict {
		opts = append(opts, definition.WithStrict())
	}
	g, err := definition.Build(def, opts...)
	if err != nil {
		p.Error("%s: %v", def.Name, err)
		return err
	}

	report, err := validator.Crawl(g)
	if err != nil {
		p.Error("%s: %v", def.Name, err)
		return err
	}
	for _, issue := range report.Issues() {
		p.Warn("%s", issue)
	}

	mode := "lazy"
	if g.Strict() {
		mode = "strict"
	}
	p.Success("%s is valid: %d states, start %q, %s validation", def.Name, g.Len(), report.Start, mode)
	return nil
}
