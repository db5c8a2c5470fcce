// Package history lists past docket runs from the run registry.
package history

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"docketsocket/models"
	"docketsocket/pkg/db"
)

// HistoryAction prints the run registry as a table, newest first.
func HistoryAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	database, err := db.Open(filepath.Join(cfg.WorkDir, db.DefaultDBName))
	if err != nil {
		return fmt.Errorf("failed to open run registry: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.String("docket"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-28s %-10s %-8s %-8s %-30s\n",
		"ID", "Started", "Docket", "Status", "Records", "Rows", "Requester")
	fmt.Println(strings.Repeat("-", 120))

	// Print each run
	for _, r := range runs {
		fmt.Printf("%-6d %-20s %-28s %-10s %-8d %-8d %-30s\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.DocketID,
			r.Status,
			r.TotalRecords,
			r.ManifestRows,
			r.Requester,
		)
		if r.Status == db.RunStatusAborted && r.FailureReason != "" {
			fmt.Printf("       reason: %s\n", r.FailureReason)
		}
	}

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	return nil
}
