package definition

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Definition is the declarative form of a transition graph.
// It uses "mapstructure" tags so YAML and JSON documents decode the same way.
type Definition struct {
	Name        string                         `json:"name" mapstructure:"name"`
	Description string                         `json:"description,omitempty" mapstructure:"description"`
	Strict      bool                           `json:"strict,omitempty" mapstructure:"strict"`
	Seed        uint64                         `json:"seed,omitempty" mapstructure:"seed"`
	Transitions map[string]domain.TransitionID `json:"transitions,omitempty" mapstructure:"transitions"`
	States      []StateDefinition              `json:"states" mapstructure:"states"`
}

// StateDefinition declares one state and the behaviour of its generated handler.
//
// Emit cycles through its ids on successive calls. Choose draws a weighted random id.
// A state with neither returns Default.
type StateDefinition struct {
	Name        string                `json:"name" mapstructure:"name"`
	Description string                `json:"description,omitempty" mapstructure:"description"`
	Inputs      []domain.TransitionID `json:"inputs,omitempty" mapstructure:"inputs"`
	Outputs     []domain.TransitionID `json:"outputs,omitempty" mapstructure:"outputs"`
	Emit        []domain.TransitionID `json:"emit,omitempty" mapstructure:"emit"`
	Choose      []Choice              `json:"choose,omitempty" mapstructure:"choose"`
}

// Choice is one weighted outcome of a Choose behaviour.
type Choice struct {
	ID     domain.TransitionID `json:"id" mapstructure:"id"`
	Weight float64             `json:"weight" mapstructure:"weight"`
}

var transitionIDType = reflect.TypeOf(domain.TransitionID(0))

// Decode converts a generic document (as produced by yaml.v3 or encoding/json) into a
// Definition. Transition ids may be written as integers, as sentinel names (finished,
// default) or as keys of the document's "transitions" table.
func Decode(raw map[string]any) (*Definition, error) {
	var names struct {
		Transitions map[string]int `mapstructure:"transitions"`
	}
	if err := mapstructure.WeakDecode(map[string]any{"transitions": raw["transitions"]}, &names); err != nil {
		return nil, fmt.Errorf("failed to decode transitions table: %w", err)
	}
	table := make(map[string]domain.TransitionID, len(names.Transitions))
	for name, id := range names.Transitions {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, err := domain.ParseTransitionID(key); err == nil {
			return nil, &domain.ConfigurationError{Err: fmt.Errorf("transition name %q is reserved", name)}
		}
		if id < 0 {
			return nil, &domain.ConfigurationError{ID: domain.TransitionID(id), Err: domain.ErrNegativeID}
		}
		table[key] = domain.TransitionID(id)
	}

	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  transitionHook(table),
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}

// transitionHook resolves symbolic transition names while decoding.
func transitionHook(table map[string]domain.TransitionID) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != transitionIDType || from.Kind() != reflect.String {
			return data, nil
		}
		name := strings.ToLower(strings.TrimSpace(data.(string)))
		if id, ok := table[name]; ok {
			return id, nil
		}
		id, err := domain.ParseTransitionID(name)
		if err != nil {
			return nil, fmt.Errorf("unknown transition %q", name)
		}
		return id, nil
	}
}

// Validate checks the definition before any state is registered.
// Graph-level rules (unique start, acceptors) are left to the graph itself.
func (d *Definition) Validate() error {
	if len(d.States) == 0 {
		return &domain.ConfigurationError{Err: domain.ErrNoStates}
	}
	for _, s := range d.States {
		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s StateDefinition) validate() error {
	fail := func(format string, args ...any) error {
		return &domain.ConfigurationError{State: s.Name, Err: fmt.Errorf(format, args...)}
	}

	if s.Name == "" {
		return fail("state name is required")
	}
	for _, id := range slices.Concat(s.Inputs, s.Outputs) {
		if !id.IsUser() {
			return &domain.ConfigurationError{State: s.Name, ID: id, Err: domain.ErrNegativeID}
		}
	}
	if len(s.Emit) > 0 && len(s.Choose) > 0 {
		return fail("emit and choose are mutually exclusive")
	}
	for _, id := range s.Emit {
		if err := s.checkProduced(id); err != nil {
			return err
		}
	}
	for _, c := range s.Choose {
		if !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
			return fail("choice %s must have a positive finite weight", c.ID)
		}
		if err := s.checkProduced(c.ID); err != nil {
			return err
		}
	}
	return nil
}

// checkProduced rejects user ids the state does not declare as outputs. Sentinels are
// left to the engine so that misuse such as FINISHED from a state with outputs is
// reported at step time, as it would be for a hand-written handler.
func (s StateDefinition) checkProduced(id domain.TransitionID) error {
	if id.IsUser() && !slices.Contains(s.Outputs, id) {
		return &domain.ConfigurationError{State: s.Name, ID: id, Err: domain.ErrUnsupportedOutput}
	}
	return nil
}
