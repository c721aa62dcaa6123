// Package planner produces abstract step plans from workflow
// descriptions via an external language model.
package planner

import (
	"context"
	"errors"

	"github.com/aturei/flowsynth/internal/models"
)

// ErrPlanInvalid marks planner output that could not be turned into a
// usable plan. Terminal for the build attempt that triggered it.
var ErrPlanInvalid = errors.New("plan is invalid")

// Hints carry the slots already known from the conversation so the
// model does not have to re-derive them.
type Hints struct {
	Trigger   models.TriggerKind
	Services  []string
	Schedule  string
	Channel   string
	Recipient string
}

// Planner turns a natural-language description into a Plan. A failure
// is terminal for the build attempt; callers do not retry internally.
type Planner interface {
	GeneratePlan(ctx context.Context, description string, hints Hints) (*models.Plan, error)
}
