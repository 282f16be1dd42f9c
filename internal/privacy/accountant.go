package privacy

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/pkg/errors"
	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

// DefaultBudgetKey is used when the caller does not partition budgets.
const DefaultBudgetKey = "global"

// CompositionRuleName identifies how sequential expenditures compose.
// Only basic (linear) composition is implemented; this is a documented
// simplification, not a formal DP accountant.
const CompositionRuleName = "basic"

// Accountant tracks cumulative privacy expenditure per budget key. Every
// noise-adding operation must reserve before sampling; a reservation is
// all-or-nothing per call, serialized under a single mutex so concurrent
// reservations can never jointly exceed a limit.
type Accountant struct {
	mu           sync.Mutex
	budgets      map[string]*models.PrivacyBudget
	limitEpsilon float64
	limitDelta   float64
	logger       *logrus.Logger
}

// NewAccountant creates an accountant whose budgets start with the given
// epsilon/delta limits. New keys are created lazily on first use.
func NewAccountant(epsilon, delta float64, logger *logrus.Logger) (*Accountant, error) {
	if epsilon <= 0 {
		return nil, errors.NewAppError(errors.ErrorTypeBudget, errors.CodeInvalidBudget,
			fmt.Sprintf("epsilon must be positive, got %g", epsilon))
	}
	if delta < 0 || delta >= 1 {
		return nil, errors.NewAppError(errors.ErrorTypeBudget, errors.CodeInvalidBudget,
			fmt.Sprintf("delta must be in [0, 1), got %g", delta))
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Accountant{
		budgets:      make(map[string]*models.PrivacyBudget),
		limitEpsilon: epsilon,
		limitDelta:   delta,
		logger:       logger,
	}, nil
}

// Reserve atomically checks and consumes budget for one operation. On
// failure the budget is left untouched and a budget-exhausted error is
// returned.
func (a *Accountant) Reserve(key string, epsilonCost, deltaCost float64) error {
	if epsilonCost < 0 || deltaCost < 0 {
		return errors.NewAppError(errors.ErrorTypeBudget, errors.CodeInvalidBudget,
			"reservation costs must be non-negative")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	budget := a.budgetLocked(key)
	if budget.ConsumedEpsilon+epsilonCost > budget.Epsilon ||
		budget.ConsumedDelta+deltaCost > budget.Delta {
		return errors.NewBudgetExhaustedError(
			fmt.Sprintf("budget %q cannot cover (eps=%g, delta=%g): remaining (eps=%g, delta=%g)",
				key, epsilonCost, deltaCost,
				budget.Epsilon-budget.ConsumedEpsilon,
				budget.Delta-budget.ConsumedDelta))
	}

	budget.ConsumedEpsilon += epsilonCost
	budget.ConsumedDelta += deltaCost
	return nil
}

// Remaining returns the unconsumed budget for a key. Pure read.
func (a *Accountant) Remaining(key string) (epsilon, delta float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.budgetLocked(key).Remaining()
}

// Reset restores a key's budget to its full limits. This is an explicit
// administrative action, never triggered by the engine itself.
func (a *Accountant) Reset(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.budgetLocked(key).ConsumedEpsilon = 0
	a.budgetLocked(key).ConsumedDelta = 0

	a.logger.WithField("budget_key", key).Warn("privacy budget reset")
}

// Limits returns the epsilon/delta limits applied to every budget key.
func (a *Accountant) Limits() (epsilon, delta float64) {
	return a.limitEpsilon, a.limitDelta
}

func (a *Accountant) budgetLocked(key string) *models.PrivacyBudget {
	if key == "" {
		key = DefaultBudgetKey
	}
	budget, ok := a.budgets[key]
	if !ok {
		budget = &models.PrivacyBudget{
			Epsilon: a.limitEpsilon,
			Delta:   a.limitDelta,
		}
		a.budgets[key] = budget
	}
	return budget
}
