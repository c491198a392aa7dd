package api

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
)

type (
	// StepType names the kind of input a step captures
	StepType string

	// Workflow is a complete form definition: ordered sections of steps plus
	// the flat logic rules evaluated against a run's answers
	Workflow struct {
		ID       WorkflowID   `json:"id"`
		Name     string       `json:"name"`
		Version  string       `json:"version,omitempty"`
		Sections []*Section   `json:"sections"`
		Rules    []*LogicRule `json:"rules,omitempty"`
	}

	// Section groups steps. Order is the ordering authority for navigation;
	// slice position is display-only. VisibleIf, when present, gates the
	// section's baseline visibility
	Section struct {
		ID        SectionID            `json:"id"`
		Title     string               `json:"title"`
		Order     float64              `json:"order"`
		VisibleIf *ConditionExpression `json:"visibleIf,omitempty"`
		Steps     []*Step              `json:"steps"`
	}

	// Step is a single input within a section. Alias gives conditions a
	// stable human-readable key for the step's answer. Required is the
	// design-time baseline; rules may override it at run time. DefaultValue
	// is a JSON-encoded literal checked against the declared type
	Step struct {
		ID           StepID               `json:"id"`
		Label        string               `json:"label"`
		Alias        Key                  `json:"alias,omitempty"`
		Type         StepType             `json:"type"`
		Order        float64              `json:"order"`
		Required     bool                 `json:"required,omitempty"`
		VisibleIf    *ConditionExpression `json:"visibleIf,omitempty"`
		DefaultValue string               `json:"defaultValue,omitempty"`
	}
)

const (
	StepTypeText        StepType = "text"
	StepTypeTextarea    StepType = "textarea"
	StepTypeNumber      StepType = "number"
	StepTypeBoolean     StepType = "boolean"
	StepTypeSelect      StepType = "select"
	StepTypeMultiSelect StepType = "multi_select"
	StepTypeDate        StepType = "date"
	StepTypeObject      StepType = "object"
)

var (
	ErrWorkflowIDEmpty     = errors.New("workflow ID empty")
	ErrWorkflowNameEmpty   = errors.New("workflow name empty")
	ErrSectionIDEmpty      = errors.New("section ID empty")
	ErrStepIDEmpty         = errors.New("step ID empty")
	ErrInvalidStepType     = errors.New("invalid step type")
	ErrDuplicateSectionID  = errors.New("duplicate section ID")
	ErrDuplicateStepID     = errors.New("duplicate step ID")
	ErrDuplicateAlias      = errors.New("duplicate alias")
	ErrInvalidDefaultValue = errors.New("invalid default value for type")
)

var validStepTypes = SetOf(
	StepTypeText,
	StepTypeTextarea,
	StepTypeNumber,
	StepTypeBoolean,
	StepTypeSelect,
	StepTypeMultiSelect,
	StepTypeDate,
	StepTypeObject,
)

func (w *Workflow) Validate() error {
	if w.ID == "" {
		return ErrWorkflowIDEmpty
	}
	if w.Name == "" {
		return ErrWorkflowNameEmpty
	}

	sections := Set[SectionID]{}
	steps := Set[StepID]{}
	aliases := Set[Key]{}
	for _, sec := range w.Sections {
		if sec == nil {
			continue
		}
		if sections.Contains(sec.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateSectionID, sec.ID)
		}
		sections = sections.With(sec.ID)
		if err := sec.Validate(); err != nil {
			return err
		}
		for _, step := range sec.Steps {
			if step == nil {
				continue
			}
			if steps.Contains(step.ID) {
				return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
			}
			steps = steps.With(step.ID)
			if step.Alias != "" {
				if aliases.Contains(step.Alias) {
					return fmt.Errorf("%w: %s", ErrDuplicateAlias, step.Alias)
				}
				aliases = aliases.With(step.Alias)
			}
		}
	}

	for _, rule := range w.Rules {
		if rule == nil {
			continue
		}
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("%w: rule %s", err, rule.ID)
		}
	}
	return nil
}

func (s *Section) Validate() error {
	if s.ID == "" {
		return ErrSectionIDEmpty
	}
	if s.VisibleIf != nil {
		if err := s.VisibleIf.Validate(); err != nil {
			return fmt.Errorf("%w: section %s", err, s.ID)
		}
	}
	for _, step := range s.Steps {
		if step == nil {
			continue
		}
		if err := step.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Step) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if s.Type != "" && !validStepTypes.Contains(s.Type) {
		return fmt.Errorf("%w: %s for step %s", ErrInvalidStepType, s.Type, s.ID)
	}
	if s.VisibleIf != nil {
		if err := s.VisibleIf.Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}
	if s.DefaultValue != "" && s.Type != "" {
		if err := validateDefaultValue(s.DefaultValue, s.Type); err != nil {
			return fmt.Errorf("%w for step %s: %v",
				ErrInvalidDefaultValue, s.ID, err)
		}
	}
	return nil
}

func validateDefaultValue(value string, stepType StepType) error {
	if !gjson.Valid(value) {
		return errors.New("must be valid JSON")
	}

	result := gjson.Parse(value)

	switch stepType {
	case StepTypeText, StepTypeTextarea, StepTypeSelect, StepTypeDate:
		if result.Type != gjson.String {
			return errors.New("must be a valid JSON string")
		}
		return nil

	case StepTypeNumber:
		if result.Type != gjson.Number {
			return errors.New("must be a valid number")
		}
		return nil

	case StepTypeBoolean:
		if result.Type != gjson.True && result.Type != gjson.False {
			return errors.New("must be \"true\" or \"false\"")
		}
		return nil

	case StepTypeMultiSelect:
		if !result.IsArray() {
			return errors.New("must be valid JSON array")
		}
		return nil

	case StepTypeObject:
		if !result.IsObject() {
			return errors.New("must be valid JSON object")
		}
		return nil

	default:
		return nil
	}
}

// Section returns the section with the given ID, if it exists
func (w *Workflow) Section(id SectionID) (*Section, bool) {
	for _, sec := range w.Sections {
		if sec != nil && sec.ID == id {
			return sec, true
		}
	}
	return nil, false
}

// Step returns the step with the given ID, if it exists
func (w *Workflow) Step(id StepID) (*Step, bool) {
	for _, sec := range w.Sections {
		if sec == nil {
			continue
		}
		for _, step := range sec.Steps {
			if step != nil && step.ID == id {
				return step, true
			}
		}
	}
	return nil, false
}

// OrderedSections returns the sections sorted by ascending numeric order.
// The receiver's slice is left untouched
func (w *Workflow) OrderedSections() []*Section {
	res := slices.Clone(w.Sections)
	slices.SortStableFunc(res, func(a, b *Section) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		default:
			return 0
		}
	})
	return res
}

// OrderedSteps returns the section's steps sorted by ascending numeric order
func (s *Section) OrderedSteps() []*Step {
	res := slices.Clone(s.Steps)
	slices.SortStableFunc(res, func(a, b *Step) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		default:
			return 0
		}
	})
	return res
}

// BaselineRequired returns the IDs of steps marked required at design time,
// in form order
func (w *Workflow) BaselineRequired() []StepID {
	var res []StepID
	for _, sec := range w.OrderedSections() {
		for _, step := range sec.OrderedSteps() {
			if step.Required {
				res = append(res, step.ID)
			}
		}
	}
	return res
}

// Labels returns a map from each step's answer key to its display label,
// used when rendering conditions for editors
func (w *Workflow) Labels() map[Key]string {
	res := map[Key]string{}
	for _, sec := range w.Sections {
		if sec == nil {
			continue
		}
		for _, step := range sec.Steps {
			if step == nil || step.Label == "" {
				continue
			}
			res[Key(step.ID)] = step.Label
			if step.Alias != "" {
				res[step.Alias] = step.Label
			}
		}
	}
	return res
}

// Resolver returns an AliasResolver that maps step aliases to step IDs.
// Unknown keys resolve to themselves at the caller's discretion
func (w *Workflow) Resolver() AliasResolver {
	aliases := map[Key]Key{}
	for _, sec := range w.Sections {
		if sec == nil {
			continue
		}
		for _, step := range sec.Steps {
			if step == nil || step.Alias == "" {
				continue
			}
			aliases[step.Alias] = Key(step.ID)
		}
	}
	return ResolverFunc(func(key Key) (Key, bool) {
		id, ok := aliases[key]
		return id, ok
	})
}
