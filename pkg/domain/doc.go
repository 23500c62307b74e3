/*
Package domain contains the core data model of the fsmlight engine.

It defines the vocabulary shared by the graph, the machine and every adapter, and is
kept free of I/O and persistence concerns.

# Key Entities

  - TransitionID: integer label of a move between states, with the reserved sentinels
    Start, Finished and Default.
  - State: a handler bound to the transitions it accepts and the transitions it may produce.
  - ConfigurationError / GraphError: the two failure kinds, wrapping sentinel errors.
  - StateEvent / StepEvent: observability payloads delivered through LifecycleHooks.
*/
package domain
