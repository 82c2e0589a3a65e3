package engine

import (
	"math"

	"github.com/greenfield-games/ecoquest/internal/catalog"
)

// newGoals instantiates the catalog goal set with zero progress.
func newGoals() []Goal {
	defs := catalog.Goals()
	goals := make([]Goal, 0, len(defs))
	for _, d := range defs {
		goals = append(goals, Goal{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Target:      d.Target,
			Reward:      d.Reward,
		})
	}
	return goals
}

// recomputeGoals derives every goal's progress from the current snapshot.
// Goals are declarative predicates over state, never counters of their own.
func recomputeGoals(g *GameState) {
	for i := range g.Goals {
		goal := &g.Goals[i]
		switch goal.ID {
		case catalog.GoalEnergyFacilities:
			n := 0
			for j := range g.Facilities {
				if catalog.IsEnergyFacility(g.Facilities[j].Type) {
					n++
				}
			}
			goal.Progress = float64(n)
		case catalog.GoalEcoScore:
			goal.Progress = math.Round(g.Resources.EcoScore)
		case catalog.GoalGreenFacilities:
			n := 0
			for j := range g.Facilities {
				t := g.Facilities[j].Type
				if t == catalog.Park || t == catalog.Recycling {
					n++
				}
			}
			goal.Progress = float64(n)
		}
	}
}

// allGoalsMet reports whether every goal predicate is satisfied.
func allGoalsMet(goals []Goal) bool {
	for i := range goals {
		if !goals[i].Met() {
			return false
		}
	}
	return true
}
