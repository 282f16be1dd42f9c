package commands

import (
	"github.com/spf13/cobra"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

func NewDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <dataset-id>",
		Short: "Show metadata for an anonymized dataset",
		Long: `Print a dataset's fingerprint, record count, privacy tier, and
creation time. Record values are never returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var info models.DatasetInfo
			if err := getJSON("/api/v1/datasets/"+args[0], &info); err != nil {
				return err
			}
			return writeOutput("-", info)
		},
	}

	return cmd
}
