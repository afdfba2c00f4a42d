package models

// Kind identifies one synchronized entity table.
type Kind string

const (
	KindProfile      Kind = "user_profiles"
	KindFoodLog      Kind = "food_logs"
	KindWeight       Kind = "weight_entries"
	KindExercise     Kind = "exercise_entries"
	KindStreak       Kind = "streaks"
	KindSubscription Kind = "subscriptions"
	KindSettings     Kind = "settings_blobs"
)

// AllKinds returns every entity kind in the order sync passes process them.
// Profile goes first so that pushing dependent rows never races an absent
// remote owner row.
func AllKinds() []Kind {
	return []Kind{
		KindProfile,
		KindStreak,
		KindSubscription,
		KindSettings,
		KindFoodLog,
		KindWeight,
		KindExercise,
	}
}

// Singleton reports whether exactly one row per owner exists for this kind.
// Non-singleton kinds are append-only time series.
func (k Kind) Singleton() bool {
	switch k {
	case KindProfile, KindStreak, KindSubscription, KindSettings:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// KindNames returns the table names for a set of kinds, in the same order.
func KindNames(kinds []Kind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}
