package engine

import (
	"math"

	"github.com/greenfield-games/ecoquest/internal/events"
)

// evaluateOutcomeLocked runs the win/loss state machine against the current
// state. Loss is always checked before win, so a state satisfying both
// resolves to loss. A terminal transition forces started=false and stops the
// clock; the caller emits the matching event outside the lock.
//
// The loss check is gated on a minimum tick count so a fresh session is not
// judged before the economy has had a chance to move.
func (s *Session) evaluateOutcomeLocked() Outcome {
	g := &s.state
	if g.Outcome != OutcomeRunning {
		return ""
	}

	if g.Tick >= s.tuning.MinTicksForOutcome {
		lowEnergy := g.Resources.Energy <= s.tuning.LossEnergyThreshold
		lowEco := g.Resources.EcoScore <= s.tuning.LossEcoThreshold
		if lowEnergy || lowEco {
			g.Outcome = OutcomeLost
			g.Started = false
			s.clock.Stop()
			s.pushNotification(g, SeverityError, "The city has collapsed. Simulation halted.")
			return OutcomeLost
		}
	}

	if g.Resources.EcoScore >= s.tuning.WinEcoThreshold && allGoalsMet(g.Goals) {
		g.Outcome = OutcomeWon
		g.Started = false
		s.clock.Stop()
		s.pushNotification(g, SeveritySuccess, "Every goal met with a thriving eco score. You win!")
		return OutcomeWon
	}

	return ""
}

// emitOutcome publishes the terminal event for a transition, exactly once,
// after the state swap.
func (s *Session) emitOutcome(transition Outcome) {
	switch transition {
	case OutcomeWon:
		st := s.State()
		s.bus.Emit(events.TypeWin, "city reached a sustainable future", map[string]any{
			"tick":     st.Tick,
			"ecoScore": math.Round(st.Resources.EcoScore),
		})
	case OutcomeLost:
		st := s.State()
		s.bus.Emit(events.TypeLose, "city collapsed", map[string]any{
			"tick":     st.Tick,
			"energy":   math.Round(st.Resources.Energy),
			"ecoScore": math.Round(st.Resources.EcoScore),
		})
	}
}
