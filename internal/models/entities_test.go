package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind_Singleton(t *testing.T) {
	assert.True(t, KindProfile.Singleton())
	assert.True(t, KindStreak.Singleton())
	assert.True(t, KindSubscription.Singleton())
	assert.True(t, KindSettings.Singleton())
	assert.False(t, KindFoodLog.Singleton())
	assert.False(t, KindWeight.Singleton())
	assert.False(t, KindExercise.Singleton())
}

func TestAllKinds_ProfileFirst(t *testing.T) {
	kinds := AllKinds()
	assert.Equal(t, KindProfile, kinds[0], "profile must be pushed before dependent rows")
	assert.Len(t, kinds, 7)
}

func TestStreakCounter_Continuous(t *testing.T) {
	today := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current int
		last    time.Time
		want    bool
	}{
		{"zero streak always continuous", 0, time.Time{}, true},
		{"active yesterday", 5, today.AddDate(0, 0, -4), true},
		{"active today, streak of one", 1, today, true},
		{"impossible streak", 10, today.AddDate(0, 0, -2), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &StreakCounter{CurrentStreak: tc.current, LastActivityDate: tc.last}
			assert.Equal(t, tc.want, s.Continuous(today))
		})
	}
}

func TestSubscriptionState_Valid(t *testing.T) {
	assert.True(t, SubscriptionActive.Valid())
	assert.True(t, SubscriptionFreeTrial.Valid())
	assert.False(t, SubscriptionState("premium").Valid())
}
