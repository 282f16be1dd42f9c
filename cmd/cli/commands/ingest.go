package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BathSalt-2/Neur1genesis/pkg/models"
)

type IngestOptions struct {
	DataFile   string
	SchemaFile string
	BudgetKey  string
}

// ingestPayload mirrors the server's ingest request shape.
type ingestPayload struct {
	Records   []models.Record      `json:"records"`
	Schema    models.DatasetSchema `json:"schema"`
	BudgetKey string               `json:"budget_key,omitempty"`
}

func NewIngestCmd() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest and anonymize sensitive records",
		Long: `Submit a batch of raw records and a schema for irreversible
anonymization and k-anonymity enforcement. Prints the published
dataset id.`,
		Example: `  # Ingest records under the global budget
  ppsde-cli ingest --data records.json --schema schema.json

  # Ingest against a dedicated budget key
  ppsde-cli ingest --data records.json --schema schema.json --budget-key tenant-a`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.DataFile, "data", "d", "", "JSON file with an array of records (required)")
	cmd.Flags().StringVarP(&opts.SchemaFile, "schema", "s", "", "JSON file with the dataset schema (required)")
	cmd.Flags().StringVar(&opts.BudgetKey, "budget-key", "", "Privacy budget key (default global)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runIngest(opts *IngestOptions) error {
	var records []models.Record
	if err := readInput(opts.DataFile, &records); err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	var schema models.DatasetSchema
	if err := readInput(opts.SchemaFile, &schema); err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	var resp struct {
		DatasetID string `json:"dataset_id"`
	}
	if err := postJSON("/api/v1/ingest", ingestPayload{
		Records:   records,
		Schema:    schema,
		BudgetKey: opts.BudgetKey,
	}, &resp); err != nil {
		return err
	}

	fmt.Println(resp.DatasetID)
	return nil
}
