/*
Package machineset implements a mutex-guarded collection of machines.

It is a convenience for "tick every machine from one goroutine": StepAll advances each held
machine by exactly one step, and RemoveAllStopped prunes the ones that reached a stop state.
Every operation takes the same exclusive lock. Sets are constructed and passed around
explicitly; there is no shared default instance.
*/
package machineset
