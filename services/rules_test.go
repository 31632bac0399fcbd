package services

import (
	"testing"

	"fleet-track/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSelector(t *testing.T) {
	engine := NewThresholdRuleEngine()

	ev := &models.EventRecord{
		StatusCode: models.StatusGeofenceArrive,
		SpeedKPH:   88.5,
		Heading:    180,
		OdometerKM: 1200,
		Latitude:   39.2,
		Longitude:  -77.3,
	}

	cases := []struct {
		selector string
		want     ActionMask
	}{
		{"speed>80", ActionNotify | ActionSaveLast},
		{"speed>100", ActionNone},
		{"speed >= 88.5", ActionNotify | ActionSaveLast},
		{"heading==180", ActionNotify | ActionSaveLast},
		{"odometer<=1000", ActionNone},
		{"latitude!=0", ActionNotify | ActionSaveLast},
		{"statusCode==0xF210", ActionNotify | ActionSaveLast},
		{"statusCode==61968", ActionNotify | ActionSaveLast},
		{"statusCode==0xF230", ActionNone},
	}
	for _, tc := range cases {
		t.Run(tc.selector, func(t *testing.T) {
			mask, err := engine.EvaluateSelector(tc.selector, ev)
			require.NoError(t, err)
			assert.Equal(t, tc.want, mask)
		})
	}
}

func TestEvaluateSelectorErrors(t *testing.T) {
	engine := NewThresholdRuleEngine()
	ev := &models.EventRecord{SpeedKPH: 50}

	for _, selector := range []string{
		"",
		"speed",
		"speed>",
		"speed>fast",
		"battery>10",
		">100",
	} {
		t.Run("invalid "+selector, func(t *testing.T) {
			mask, err := engine.EvaluateSelector(selector, ev)
			require.Error(t, err)
			assert.Equal(t, ActionNone, mask)
		})
	}
}

func TestExecuteRules(t *testing.T) {
	engine := NewThresholdRuleEngine()

	t.Run("quiet event matches nothing", func(t *testing.T) {
		mask := engine.ExecuteRules(&models.EventRecord{
			StatusCode: models.StatusLocation,
			SpeedKPH:   60,
		})
		assert.Equal(t, ActionNone, mask)
	})

	t.Run("speeding", func(t *testing.T) {
		mask := engine.ExecuteRules(&models.EventRecord{
			StatusCode: models.StatusLocation,
			SpeedKPH:   130,
		})
		assert.Equal(t, ActionNotify|ActionSaveLast, mask)
	})

	t.Run("low battery notifies without save-last", func(t *testing.T) {
		mask := engine.ExecuteRules(&models.EventRecord{
			StatusCode: models.StatusLowBattery,
		})
		assert.Equal(t, ActionNotify, mask)
	})

	t.Run("matches union across rules", func(t *testing.T) {
		mask := engine.ExecuteRules(&models.EventRecord{
			StatusCode: models.StatusLowBattery,
			SpeedKPH:   130,
		})
		assert.Equal(t, ActionNotify|ActionSaveLast, mask)
	})
}

func TestCustomRuleSet(t *testing.T) {
	engine := NewThresholdRuleEngineWithRules([]ThresholdRule{
		{
			Name:      "ignition-on",
			Evaluator: func(ev *models.EventRecord) bool { return ev.StatusCode == models.StatusIgnitionOn },
			Actions:   ActionSaveLast,
		},
	})

	assert.Equal(t, ActionSaveLast, engine.ExecuteRules(&models.EventRecord{StatusCode: models.StatusIgnitionOn}))
	assert.Equal(t, ActionNone, engine.ExecuteRules(&models.EventRecord{StatusCode: models.StatusGeofenceArrive}),
		"default rules are not consulted when a custom set is installed")
}
