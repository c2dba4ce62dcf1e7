package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessMarginSafetyTiers(t *testing.T) {
	p := DefaultParams()

	cases := []struct {
		name string
		snap AccountSnapshot
		want MarginStatus
	}{
		{"spot always safe", AccountSnapshot{Equity: 100, MaintenanceMargin: 200}, MarginSafe},
		{"healthy", AccountSnapshot{Equity: 1000, MaintenanceMargin: 100, Margined: true}, MarginSafe},
		{"warning", AccountSnapshot{Equity: 140, MaintenanceMargin: 100, Margined: true}, MarginWarning},
		{"critical", AccountSnapshot{Equity: 115, MaintenanceMargin: 100, Margined: true}, MarginCritical},
		{"emergency", AccountSnapshot{Equity: 103, MaintenanceMargin: 100, Margined: true}, MarginEmergency},
		{"losses push level down", AccountSnapshot{Equity: 200, UnrealizedPL: -80, MaintenanceMargin: 100, Margined: true}, MarginCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := AssessMarginSafety(tc.snap, p)
			assert.Equal(t, tc.want, a.Status)
			assert.NotEmpty(t, a.Action)
		})
	}
}

func TestAssessMarginSafetyLevel(t *testing.T) {
	p := DefaultParams()
	a := AssessMarginSafety(AccountSnapshot{Equity: 100, UnrealizedPL: 3, MaintenanceMargin: 100, Margined: true}, p)
	assert.Equal(t, MarginEmergency, a.Status)
	assert.InDelta(t, 1.03, a.Level, 1e-9)
}

func TestAssessMarginSafetyFailsOpen(t *testing.T) {
	p := DefaultParams()

	// No maintenance requirement means nothing can be liquidated, so the
	// check must not divide by zero and must report safe.
	a := AssessMarginSafety(AccountSnapshot{Equity: 50, Margined: true}, p)
	assert.Equal(t, MarginSafe, a.Status)
	assert.Zero(t, a.Level)

	a = AssessMarginSafety(AccountSnapshot{Equity: 50, MaintenanceMargin: -10, Margined: true}, p)
	assert.Equal(t, MarginSafe, a.Status)
}
