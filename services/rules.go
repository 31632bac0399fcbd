package services

import (
	"fmt"
	"strconv"
	"strings"

	"fleet-track/models"
)

// ActionMask is the set of actions a rule evaluation requests.
type ActionMask int

const (
	ActionNone ActionMask = 0

	// ActionNotify requests that a notification be delivered.
	ActionNotify ActionMask = 1 << iota

	// ActionSaveLast requests that the event be remembered as the device's
	// last notification (lastNotifyTime/lastNotifyCode).
	ActionSaveLast
)

// NotificationRuleEngine evaluates notification rules against an event.
// Delivery of the resulting notifications is an external concern.
type NotificationRuleEngine interface {
	// EvaluateSelector evaluates a single boolean selector expression against
	// the event. A selector that cannot be parsed returns an error.
	EvaluateSelector(selector string, ev *models.EventRecord) (ActionMask, error)

	// ExecuteRules runs the full status-code-driven rule set against the
	// event and returns the union of requested actions.
	ExecuteRules(ev *models.EventRecord) ActionMask
}

// ===================================================================
// DEFAULT THRESHOLD RULE ENGINE
// ===================================================================

// ThresholdRule couples a predicate with the actions it requests.
type ThresholdRule struct {
	Name      string
	Evaluator func(ev *models.EventRecord) bool
	Actions   ActionMask
}

// DefaultThresholdRules is the built-in status-code-driven rule set.
var DefaultThresholdRules = []ThresholdRule{
	{
		Name: "speeding",
		Evaluator: func(ev *models.EventRecord) bool {
			return ev.SpeedKPH > 120.0
		},
		Actions: ActionNotify | ActionSaveLast,
	},
	{
		Name: "geofence-arrive",
		Evaluator: func(ev *models.EventRecord) bool {
			return ev.StatusCode == models.StatusGeofenceArrive
		},
		Actions: ActionNotify | ActionSaveLast,
	},
	{
		Name: "geofence-depart",
		Evaluator: func(ev *models.EventRecord) bool {
			return ev.StatusCode == models.StatusGeofenceDepart
		},
		Actions: ActionNotify | ActionSaveLast,
	},
	{
		Name: "low-battery",
		Evaluator: func(ev *models.EventRecord) bool {
			return ev.StatusCode == models.StatusLowBattery
		},
		Actions: ActionNotify,
	},
}

// ThresholdRuleEngine is the default NotificationRuleEngine: a fixed rule
// table plus a minimal "field op value" selector language.
type ThresholdRuleEngine struct {
	rules []ThresholdRule
}

// NewThresholdRuleEngine creates a rule engine with the default rule set.
func NewThresholdRuleEngine() *ThresholdRuleEngine {
	return &ThresholdRuleEngine{rules: DefaultThresholdRules}
}

// NewThresholdRuleEngineWithRules creates a rule engine with a custom rule set.
func NewThresholdRuleEngineWithRules(rules []ThresholdRule) *ThresholdRuleEngine {
	return &ThresholdRuleEngine{rules: rules}
}

// ExecuteRules runs every rule whose predicate matches and unions the actions.
func (e *ThresholdRuleEngine) ExecuteRules(ev *models.EventRecord) ActionMask {
	mask := ActionNone
	for _, rule := range e.rules {
		if rule.Evaluator(ev) {
			mask |= rule.Actions
		}
	}
	return mask
}

// EvaluateSelector evaluates one selector expression of the form
// "field op value", e.g. "speed>100" or "statusCode==0xF210". Supported
// fields: speed, heading, altitude, odometer, latitude, longitude,
// statusCode. Supported operators: > >= < <= == !=.
func (e *ThresholdRuleEngine) EvaluateSelector(selector string, ev *models.EventRecord) (ActionMask, error) {
	field, op, valueStr, err := splitSelector(selector)
	if err != nil {
		return ActionNone, err
	}

	left, err := selectorField(field, ev)
	if err != nil {
		return ActionNone, err
	}

	right, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		// Allow hex status-code literals.
		if iv, ierr := strconv.ParseInt(valueStr, 0, 64); ierr == nil {
			right = float64(iv)
		} else {
			return ActionNone, fmt.Errorf("invalid selector value %q", valueStr)
		}
	}

	matched := false
	switch op {
	case ">":
		matched = left > right
	case ">=":
		matched = left >= right
	case "<":
		matched = left < right
	case "<=":
		matched = left <= right
	case "==":
		matched = left == right
	case "!=":
		matched = left != right
	}

	if matched {
		return ActionNotify | ActionSaveLast, nil
	}
	return ActionNone, nil
}

func splitSelector(selector string) (field, op, value string, err error) {
	s := strings.Join(strings.Fields(selector), "")
	// Two-char operators before their one-char prefixes.
	for _, candidate := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if idx := strings.Index(s, candidate); idx > 0 {
			field = s[:idx]
			op = candidate
			value = s[idx+len(candidate):]
			if value == "" {
				return "", "", "", fmt.Errorf("selector %q has no value", selector)
			}
			return field, op, value, nil
		}
	}
	return "", "", "", fmt.Errorf("selector %q has no operator", selector)
}

func selectorField(field string, ev *models.EventRecord) (float64, error) {
	switch field {
	case "speed":
		return ev.SpeedKPH, nil
	case "heading":
		return ev.Heading, nil
	case "altitude":
		return ev.AltitudeM, nil
	case "odometer":
		return ev.OdometerKM, nil
	case "latitude":
		return ev.Latitude, nil
	case "longitude":
		return ev.Longitude, nil
	case "statusCode":
		return float64(ev.StatusCode), nil
	}
	return 0, fmt.Errorf("unknown selector field %q", field)
}
