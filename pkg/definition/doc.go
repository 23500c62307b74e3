/*
Package definition loads declarative machine files and turns them into transition graphs.

A definition lists states with their inputs and outputs, plus a scripted behaviour that
stands in for a hand-written handler: "emit" cycles through a list of transition ids and
"choose" draws a weighted random one from a seeded source. States with neither return
DEFAULT.

	name: traffic
	transitions: {go: 1, stop: 2}
	states:
	  - name: boot
	    outputs: [go]
	  - name: green
	    inputs: [go]
	    outputs: [stop]
	    emit: [stop]
	  - name: red
	    inputs: [stop]
	    emit: [finished]

Transition ids may be integers, names from the "transitions" table, or the sentinels
"finished" and "default".
*/
package definition
