// Package validator crawls a graph from its start state and reports structural problems
// that lazy validation lets through.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
)

// Output is one declared output of a state.
type Output struct {
	State string
	ID    domain.TransitionID
}

// Report lists what the crawl found. An empty report means every state is reachable and
// every output has exactly one acceptor.
type Report struct {
	Start       string
	Reachable   []string
	Unreachable []string
	Dangling    []Output // no acceptor
	Ambiguous   []Output // several acceptors
}

// OK reports whether the crawl found nothing to complain about.
func (r Report) OK() bool {
	return len(r.Unreachable) == 0 && len(r.Dangling) == 0 && len(r.Ambiguous) == 0
}

// Issues returns one human readable line per problem.
func (r Report) Issues() []string {
	var issues []string
	for _, name := range r.Unreachable {
		issues = append(issues, fmt.Sprintf("state %q is unreachable from %q", name, r.Start))
	}
	for _, o := range r.Dangling {
		issues = append(issues, fmt.Sprintf("state %q: output %s has no acceptor", o.State, o.ID))
	}
	for _, o := range r.Ambiguous {
		issues = append(issues, fmt.Sprintf("state %q: output %s has several acceptors", o.State, o.ID))
	}
	return issues
}

// Err folds the issues into one error, or nil.
func (r Report) Err() error {
	issues := r.Issues()
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("found %d issues:\n- %s", len(issues), strings.Join(issues, "\n- "))
}

// Crawl walks the graph breadth-first from its start state, following every output to
// every state accepting it.
func Crawl(g *fsm.Graph) (Report, error) {
	start, err := g.Start()
	if err != nil {
		return Report{}, err
	}

	report := Report{Start: start.Name()}
	visited := map[string]bool{start.Name(): true}
	queue := []*domain.State{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		report.Reachable = append(report.Reachable, current.Name())

		for _, id := range current.Outputs() {
			acceptors := g.Acceptors(id)
			switch len(acceptors) {
			case 0:
				report.Dangling = append(report.Dangling, Output{State: current.Name(), ID: id})
			case 1:
			default:
				report.Ambiguous = append(report.Ambiguous, Output{State: current.Name(), ID: id})
			}
			for _, next := range acceptors {
				if !visited[next.Name()] {
					visited[next.Name()] = true
					queue = append(queue, next)
				}
			}
		}
	}

	for _, s := range g.States() {
		if !visited[s.Name()] {
			report.Unreachable = append(report.Unreachable, s.Name())
		}
	}
	slices.Sort(report.Unreachable)
	return report, nil
}
