package storage

import (
	"time"

	"github.com/melissa-hq/flagengine/internal/domain"
)

const seedOwner = "platform-team"

// builtinFlags is the fixed registry loaded at first store
// initialization: core capabilities ship enabled, experimental
// capabilities ramp through a partial rollout.
func builtinFlags(now time.Time) []domain.Flag {
	core := func(id, name, description string, tags ...string) domain.Flag {
		return domain.Flag{
			ID:          id,
			Name:        name,
			Description: description,
			Status:      domain.StatusEnabled,
			Owner:       seedOwner,
			CreatedAt:   now,
			Tags:        tags,
		}
	}

	return []domain.Flag{
		core("melissa-ai", "Melissa Assistant", "Conversational assistant surface.", "core", "assistant"),
		core("calculation-engine", "Calculation Engine", "Deterministic projection engine.", "core", "engine"),
		core("scoring-engine", "Scoring Engine", "Plan scoring and grading.", "core", "engine"),
		core("review-workflow", "Review Workflow", "Advisor review queue.", "core", "review"),

		core("export-pdf", "PDF Export", "Client-ready PDF reports.", "export"),
		core("export-csv", "CSV Export", "Raw data CSV export.", "export"),
		core("export-xlsx", "Excel Export", "Spreadsheet export with formulas.", "export"),

		{
			ID:          "scenario-analysis",
			Name:        "Scenario Analysis",
			Description: "Side-by-side what-if scenario comparison.",
			Status:      domain.StatusRollout,
			RolloutStrategy: &domain.RolloutStrategy{
				Type:       domain.StrategyPercentage,
				Percentage: 50,
			},
			Owner:      seedOwner,
			CreatedAt:  now,
			TrackUsage: true,
			Tags:       []string{"advanced", "experimental"},
		},
	}
}
