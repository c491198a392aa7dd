// Package logic evaluates the flat legacy rule model: an ordered list of
// single-condition rules, each applying one action to one section or step.
// Rules fold into an EvaluationResult in ascending order against a single
// snapshot of the answers; later rules override earlier ones on the same
// target. Unlike the expression evaluator, an unknown operator leaves its
// rule unapplied
package logic
