// Package progression holds the XP/level/streak rules. Everything in here is
// pure computation; persistence and serialization of concurrent completions
// belong to the task service that calls it.
package progression

// XPPerLevel is how much XP a level holds. XP is always kept in
// [0, XPPerLevel) and overflow is converted into level gain.
const XPPerLevel = 100

// State is one user's progression aggregate. A user who has never completed
// a task has no state at all; Apply treats a nil current state as the
// starting point (level 1, nothing accrued).
type State struct {
	XP            int
	Level         int
	Streak        int
	LastCompleted *Day
}

// Apply computes the state resulting from completing one task worth reward
// XP on the given calendar day. It is a pure function: same inputs, same
// output, no clock reads.
//
// Streak rules, compared by calendar date only:
//   - no prior completion date: streak becomes 1, whatever was stored
//   - last completion was the day before: streak + 1
//   - last completion was the same day: unchanged
//   - anything else (gap, or an out-of-order date): reset to 1
func Apply(current *State, reward int, day Day) State {
	next := State{XP: 0, Level: 1, Streak: 0}
	if current != nil {
		next = *current
	}

	next.XP += reward
	next.Level += next.XP / XPPerLevel
	next.XP %= XPPerLevel

	switch {
	case next.LastCompleted == nil:
		next.Streak = 1
	case next.LastCompleted.Next().Equal(day):
		next.Streak++
	case next.LastCompleted.Equal(day):
		// second completion the same day, streak already counted
	default:
		next.Streak = 1
	}

	d := day
	next.LastCompleted = &d
	return next
}
