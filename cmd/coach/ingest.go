package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the knowledge base",
	Long: `Chunk and embed every document in the knowledge base directory.
An index that already holds chunks is kept unless --force is set.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Rebuild the index even when it already holds chunks")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := newCoach(ctx, newLogger())
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.Ingest(ctx, ingestForce)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if report.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "Knowledge base already indexed; use --force to rebuild.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %d chunks.\n", report.Documents, report.Chunks)
	return nil
}
