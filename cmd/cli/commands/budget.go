package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget [key]",
		Short: "Show the remaining privacy budget for a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := "global"
			if len(args) == 1 {
				key = args[0]
			}

			var resp struct {
				BudgetKey        string  `json:"budget_key"`
				RemainingEpsilon float64 `json:"remaining_epsilon"`
				RemainingDelta   float64 `json:"remaining_delta"`
			}
			if err := getJSON("/api/v1/budget/"+key, &resp); err != nil {
				return err
			}

			fmt.Printf("budget %s: epsilon=%g delta=%g remaining\n",
				resp.BudgetKey, resp.RemainingEpsilon, resp.RemainingDelta)
			return nil
		},
	}

	return cmd
}
