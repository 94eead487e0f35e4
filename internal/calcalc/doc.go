// Package calcalc routes an expression either to the local arithmetic
// evaluator or to a remote resolver.
//
// An expression is evaluated locally only when remote resolution is not
// forced, agent.IsArithmetic accepts it and the local evaluation succeeds.
// Every other case makes exactly one remote call. Local failures never reach
// the caller; remote transport failures always do.
package calcalc
