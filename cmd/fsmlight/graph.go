package main

import (
	"fmt"
	"io"

	"github.com/aretw0/fsmlight/internal/presentation/graph"
	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the state graph visualization",
	Long:  `Builds the definition and outputs a Mermaid diagram (graph TD) of its states and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(w io.Writer, path string) error {
	def, err := definition.LoadFile(path)
	if err != nil {
		return err
	}
	g, err := definition.Build(def, definition.WithLogger(logger))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(g.States(), nil))
	return err
}
