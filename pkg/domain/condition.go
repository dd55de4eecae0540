package domain

import "sort"

// ConditionKind is the predicate applied to each named variable.
type ConditionKind string

const (
	ConditionExists    ConditionKind = "user_data_exists"
	ConditionNotExists ConditionKind = "user_data_not_exists"
	ConditionEquals    ConditionKind = "user_data_equals"
	ConditionContains  ConditionKind = "user_data_contains"
)

// LogicOperator combines the per-variable predicates of one condition.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// ConditionalMessage overrides a node's text, keyboard and input behaviour
// when its guard holds. Higher Priority is evaluated first.
type ConditionalMessage struct {
	ID            string        `json:"id" mapstructure:"id"`
	Priority      int           `json:"priority" mapstructure:"priority"`
	Condition     ConditionKind `json:"condition" mapstructure:"condition"`
	VariableName  string        `json:"variableName,omitempty" mapstructure:"variableName"`
	VariableNames []string      `json:"variableNames,omitempty" mapstructure:"variableNames"`
	LogicOperator LogicOperator `json:"logicOperator,omitempty" mapstructure:"logicOperator"`
	ExpectedValue string        `json:"expectedValue,omitempty" mapstructure:"expectedValue"`
	MessageText   string        `json:"messageText,omitempty" mapstructure:"messageText"`
	KeyboardType  string        `json:"keyboardType,omitempty" mapstructure:"keyboardType"`
	Buttons       []Button      `json:"buttons,omitempty" mapstructure:"buttons"`

	WaitForTextInput   bool   `json:"waitForTextInput,omitempty" mapstructure:"waitForTextInput"`
	TextInputVariable  string `json:"textInputVariable,omitempty" mapstructure:"textInputVariable"`
	NextNodeAfterInput string `json:"nextNodeAfterInput,omitempty" mapstructure:"nextNodeAfterInput"`
}

// Variables returns the variable names tested by the condition.
// The legacy single VariableName is included when VariableNames is empty.
func (c ConditionalMessage) Variables() []string {
	if len(c.VariableNames) > 0 {
		return c.VariableNames
	}
	if c.VariableName != "" {
		return []string{c.VariableName}
	}
	return nil
}

// Operator returns the logic operator, defaulting to AND.
func (c ConditionalMessage) Operator() LogicOperator {
	if c.LogicOperator == LogicOr {
		return LogicOr
	}
	return LogicAnd
}

// HasKeyboard reports whether the condition replaces the node keyboard.
func (c ConditionalMessage) HasKeyboard() bool {
	return c.KeyboardType != "" && c.KeyboardType != KeyboardNone && len(c.Buttons) > 0
}

// SortByPriority returns a copy of conds ordered by descending priority.
// Conditions with equal priority keep their authored order.
func SortByPriority(conds []ConditionalMessage) []ConditionalMessage {
	out := make([]ConditionalMessage, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
