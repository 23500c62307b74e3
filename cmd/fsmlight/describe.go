package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/fsmlight/internal/presentation/tui"
	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print a table of the definition's states",
	Long:  `Prints a Markdown summary of the definition, rendered for the terminal when stdout is a TTY.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		render := !raw && cmd.OutOrStdout() == os.Stdout && tui.IsTerminal(os.Stdout)
		return runDescribe(cmd.OutOrStdout(), args[0], render)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print plain Markdown even on a terminal")
}

func runDescribe(w io.Writer, path string, render bool) error {
	def, err := definition.LoadFile(path)
	if err != nil {
		return err
	}

	md := describeMarkdown(def)
	if render {
		md, err = tui.NewRenderer()(md)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(w, md)
	return err
}

func describeMarkdown(def *definition.Definition) string {
	names := make(map[domain.TransitionID]string, len(def.Transitions))
	for name, id := range def.Transitions {
		names[id] = name
	}
	label := func(ids []domain.TransitionID) string {
		if len(ids) == 0 {
			return "-"
		}
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
			if name, ok := names[id]; ok {
				parts[i] = fmt.Sprintf("%s (%s)", name, id)
			}
		}
		return strings.Join(parts, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", def.Description)
	}
	sb.WriteString("| State | Kind | Inputs | Outputs | Behaviour |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, s := range def.States {
		kind := "step"
		switch {
		case len(s.Inputs) == 0:
			kind = "start"
		case len(s.Outputs) == 0:
			kind = "stop"
		}

		behaviour := "default"
		switch {
		case len(s.Emit) > 0:
			behaviour = "emit " + label(s.Emit)
		case len(s.Choose) > 0:
			parts := make([]string, len(s.Choose))
			for i, c := range s.Choose {
				parts[i] = fmt.Sprintf("%s×%g", label([]domain.TransitionID{c.ID}), c.Weight)
			}
			behaviour = "choose " + strings.Join(parts, ", ")
		}

		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", s.Name, kind, label(s.Inputs), label(s.Outputs), behaviour)
	}
	return sb.String()
}
