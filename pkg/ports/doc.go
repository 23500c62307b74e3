/*
Package ports defines the driven ports (interfaces) used around the state machine engine.

The engine itself has no external dependencies; adapters implementing these interfaces
live under pkg/adapters.

# Key Interfaces

  - EventJournal: a bounded, append-only record of step events (memory or Redis streams).
*/
package ports
