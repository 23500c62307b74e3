package definition_test

import (
	"testing"

	"github.com/aretw0/fsmlight/pkg/definition"
	"github.com/aretw0/fsmlight/pkg/domain"
	"github.com/aretw0/fsmlight/pkg/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_YAML(t *testing.T) {
	def, err := definition.LoadFile("testdata/traffic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "traffic", def.Name)
	require.Len(t, def.States, 4)
	assert.Equal(t, domain.TransitionID(4), def.Transitions["halt"])

	green := def.States[1]
	assert.Equal(t, []domain.TransitionID{1, 3}, green.Inputs, "names resolve through the transitions table")
	assert.Equal(t, []domain.TransitionID{3, 4}, def.States[2].Emit)
}

func TestLoadFile_JSON(t *testing.T) {
	def, err := definition.LoadFile("testdata/coin.json")
	require.NoError(t, err)

	assert.True(t, def.Strict)
	assert.Equal(t, uint64(42), def.Seed)
	require.Len(t, def.States[0].Choose, 2)
	assert.Equal(t, 3.0, def.States[0].Choose[1].Weight)
	assert.Equal(t, []domain.TransitionID{domain.Finished}, def.States[1].Emit)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := definition.LoadFile("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		target  error
		message string
	}{
		{
			name:   "no states",
			doc:    "name: empty\n",
			target: domain.ErrNoStates,
		},
		{
			name:   "negative table entry",
			doc:    "transitions: {bad: -4}\nstates: [{name: a, outputs: [1]}]\n",
			target: domain.ErrNegativeID,
		},
		{
			name:   "sentinel output",
			doc:    "states: [{name: a, outputs: [finished]}]\n",
			target: domain.ErrNegativeID,
		},
		{
			name:   "emit undeclared output",
			doc:    "states: [{name: a, outputs: [1], emit: [2]}]\n",
			target: domain.ErrUnsupportedOutput,
		},
		{
			name:    "unknown transition name",
			doc:     "states: [{name: a, outputs: [nowhere]}]\n",
			message: "unknown transition",
		},
		{
			name:    "unknown field",
			doc:     "states: [{name: a, outputs: [1], colour: red}]\n",
			message: "colour",
		},
		{
			name:    "emit and choose",
			doc:     "states: [{name: a, outputs: [1], emit: [1], choose: [{id: 1, weight: 1}]}]\n",
			message: "mutually exclusive",
		},
		{
			name:    "zero weight",
			doc:     "states: [{name: a, outputs: [1], choose: [{id: 1, weight: 0}]}]\n",
			message: "positive finite weight",
		},
		{
			name:    "nan weight",
			doc:     "states: [{name: a, outputs: [1, 2], choose: [{id: 1, weight: .nan}, {id: 2, weight: 1}]}]\n",
			message: "positive finite weight",
		},
		{
			name:    "infinite weight",
			doc:     "states: [{name: a, outputs: [1], choose: [{id: 1, weight: .inf}]}]\n",
			message: "positive finite weight",
		},
		{
			name:    "sentinel name in table",
			doc:     "transitions: {finished: 1}\nstates: [{name: a, outputs: [finished]}]\n",
			message: `transition name "finished" is reserved`,
		},
		{
			name:    "default name in table",
			doc:     "transitions: {Default: 2}\nstates: [{name: a, outputs: [1]}]\n",
			message: `transition name "Default" is reserved`,
		},
		{
			name:    "numeric name in table",
			doc:     "transitions: {\"3\": 4}\nstates: [{name: a, outputs: [3]}]\n",
			message: "is reserved",
		},
		{
			name:    "missing name",
			doc:     "states: [{outputs: [1]}]\n",
			message: "state name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := definition.Parse([]byte(tt.doc), "yaml")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := definition.Parse([]byte("{}"), "toml")
	assert.ErrorContains(t, err, "unsupported definition format")
}

func TestBuild_RunsScript(t *testing.T) {
	def, err := definition.LoadFile("testdata/traffic.yaml")
	require.NoError(t, err)

	g, err := definition.Build(def)
	require.NoError(t, err)
	assert.True(t, g.Finalized())
	assert.False(t, g.Strict())

	var visited []string
	m := fsm.NewMachine(g, fsm.WithLifecycleHooks(domain.LifecycleHooks{
		OnStateEnter: func(e *domain.StateEvent) { visited = append(visited, e.State) },
	}))

	for i := 0; i < 20; i++ {
		more, err := m.SingleStep()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	assert.True(t, m.Stopped())
	assert.Equal(t, "parked", m.Current().Name())
	assert.Equal(t, []string{"boot", "green", "red", "green", "red", "parked"}, visited)
	assert.Equal(t, uint64(6), m.Steps())
}

func TestBuild_StrictFromOption(t *testing.T) {
	doc := "states: [{name: a, outputs: [1]}, {name: b, inputs: [2]}]\n"
	def, err := definition.Parse([]byte(doc), "yaml")
	require.NoError(t, err)

	_, err = definition.Build(def)
	assert.NoError(t, err, "lazy validation accepts a dangling output")

	_, err = definition.Build(def, definition.WithStrict())
	assert.ErrorIs(t, err, domain.ErrInputMapping)
}

func TestBuild_ChooseIsSeeded(t *testing.T) {
	def, err := definition.LoadFile("testdata/coin.json")
	require.NoError(t, err)

	outcome := func() string {
		g, err := definition.Build(def)
		require.NoError(t, err)
		assert.True(t, g.Strict())

		m := fsm.NewMachine(g)
		_, err = m.SingleStep()
		require.NoError(t, err)
		return m.Current().Name()
	}

	first := outcome()
	assert.Contains(t, []string{"heads", "tails"}, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, outcome(), "same seed gives the same draw")
	}
}

func TestBuild_ChooseRespectsWeights(t *testing.T) {
	doc := `
seed: 7
states:
  - name: flip
    outputs: [1, 2]
    choose: [{id: 1, weight: 1}, {id: 2, weight: 9}]
  - name: loop
    inputs: [1, 2]
    outputs: [3]
  - name: back
    inputs: [3]
`
	def, err := definition.Parse([]byte(doc), "yaml")
	require.NoError(t, err)
	g, err := definition.Build(def)
	require.NoError(t, err)

	flip, ok := g.State("flip")
	require.True(t, ok)

	counts := map[domain.TransitionID]int{}
	for i := 0; i < 2000; i++ {
		counts[flip.Run()]++
	}
	assert.Greater(t, counts[2], counts[1]*3)
	assert.Equal(t, 2000, counts[1]+counts[2])
}
