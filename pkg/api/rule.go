package api

import (
	"errors"
	"fmt"
)

type (
	// RuleAction names the effect a logic rule applies to its target
	RuleAction string

	// TargetType names the kind of element a logic rule targets
	TargetType string

	// LogicRule is a single flat rule from the legacy logic model: when the
	// answer under ConditionStepID satisfies Operator against ConditionValue,
	// Action is applied to the target. Rules are evaluated in ascending Order
	// against one snapshot of the answers
	LogicRule struct {
		ID              string     `json:"id,omitempty"`
		TargetType      TargetType `json:"targetType"`
		TargetSectionID SectionID  `json:"targetSectionId,omitempty"`
		TargetStepID    StepID     `json:"targetStepId,omitempty"`
		ConditionStepID Key        `json:"conditionStepId"`
		Operator        Operator   `json:"operator"`
		ConditionValue  any        `json:"conditionValue,omitempty"`
		Action          RuleAction `json:"action"`
		Order           float64    `json:"order"`
	}
)

const (
	ActionShow         RuleAction = "show"
	ActionHide         RuleAction = "hide"
	ActionRequire      RuleAction = "require"
	ActionMakeOptional RuleAction = "make_optional"
	ActionSkipTo       RuleAction = "skip_to"
)

const (
	TargetSection TargetType = "section"
	TargetStep    TargetType = "step"
)

var (
	ErrInvalidRuleAction  = errors.New("invalid rule action")
	ErrInvalidTargetType  = errors.New("invalid target type")
	ErrRuleConditionEmpty = errors.New("rule condition step empty")
	ErrActionNeedsSection = errors.New("action requires a section target")
	ErrActionNeedsStep    = errors.New("action requires a step target")
)

var (
	validRuleActions = SetOf(
		ActionShow,
		ActionHide,
		ActionRequire,
		ActionMakeOptional,
		ActionSkipTo,
	)

	validTargetTypes = SetOf(
		TargetSection,
		TargetStep,
	)

	stepOnlyActions = SetOf(
		ActionRequire,
		ActionMakeOptional,
	)
)

// Validate checks a rule for authoring mistakes. Rules whose target is
// missing are skipped at evaluation time rather than rejected here
func (r *LogicRule) Validate() error {
	if !validTargetTypes.Contains(r.TargetType) {
		return fmt.Errorf("%w: %s", ErrInvalidTargetType, r.TargetType)
	}
	if !validRuleActions.Contains(r.Action) {
		return fmt.Errorf("%w: %s", ErrInvalidRuleAction, r.Action)
	}
	if r.ConditionStepID == "" {
		return ErrRuleConditionEmpty
	}
	if r.Action == ActionSkipTo && r.TargetType != TargetSection {
		return fmt.Errorf("%w: %s", ErrActionNeedsSection, r.Action)
	}
	if stepOnlyActions.Contains(r.Action) && r.TargetType != TargetStep {
		return fmt.Errorf("%w: %s", ErrActionNeedsStep, r.Action)
	}
	return nil
}

// SectionTarget returns the rule's section target, if any
func (r *LogicRule) SectionTarget() (SectionID, bool) {
	if r.TargetType != TargetSection || r.TargetSectionID == "" {
		return "", false
	}
	return r.TargetSectionID, true
}

// StepTarget returns the rule's step target, if any
func (r *LogicRule) StepTarget() (StepID, bool) {
	if r.TargetType != TargetStep || r.TargetStepID == "" {
		return "", false
	}
	return r.TargetStepID, true
}

// Condition returns the rule's single comparison as an expression leaf, so
// both logic models share one operator table
func (r *LogicRule) Condition() *ConditionExpression {
	return &ConditionExpression{
		Variable: r.ConditionStepID,
		Operator: r.Operator,
		Value:    r.ConditionValue,
	}
}
