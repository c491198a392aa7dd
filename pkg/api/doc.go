// Package api defines the core data types shared across the Fieldline engine
//
// This package contains all the wire-level types used by the evaluators and
// the runtime service, including workflow definitions, condition expressions,
// logic rules, evaluation results, and run data maps
package api
