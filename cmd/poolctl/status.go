package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/persist"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every entry's health, usage, and error state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			byFamily, err := persist.Load(cfg.PoolFilePath)
			if err != nil {
				return fmt.Errorf("load %s: %w", cfg.PoolFilePath, err)
			}

			families := make([]family.Family, 0, len(byFamily))
			for f := range byFamily {
				families = append(families, f)
			}
			sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "FAMILY\tUUID\tHEALTHY\tDISABLED\tERRORS\tUSAGE\tLAST ERROR")
			for _, f := range families {
				for _, e := range byFamily[f] {
					snap := e.Snapshot()
					lastErr := ""
					if snap.LastErrorMessage != nil {
						lastErr = *snap.LastErrorMessage
					}
					fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%d\t%d\t%s\n",
						f, e.UUID, snap.IsHealthy, snap.IsDisabled, snap.ErrorCount, snap.UsageCount, lastErr)
				}
			}
			return w.Flush()
		},
	}
}
