// Package condition evaluates visibility condition trees against run data
//
// Expressions nest and/or groups around leaf comparisons. Evaluation is
// deliberately permissive: nil expressions, empty groups, blank variables,
// and unknown operators all evaluate as satisfied so that a malformed
// condition never hides a form from an applicant. Text comparisons are
// case-insensitive throughout
package condition
