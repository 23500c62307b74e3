/*
Package dsl provides a fluent builder for constructing state graphs in Go code.

It is an alternative to calling fsm.Graph.Register directly: states are declared by name,
inputs and outputs are chained, and Build registers everything in declaration order before
finalizing.

Example usage:

	const (
		running domain.TransitionID = iota + 1
		done
	)

	g, err := dsl.New(fsm.WithStrictValidation()).
		State("init").Emits(running).
		State("work").On(running).Emits(running, done).Do(work).
		State("done").On(done).Finish().
		Build()
*/
package dsl
