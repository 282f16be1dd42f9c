package commands

import (
	"github.com/spf13/cobra"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the engine's operational status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status models.EngineStatus
			if err := getJSON("/api/v1/status", &status); err != nil {
				return err
			}
			return writeOutput("-", status)
		},
	}

	return cmd
}
