package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakhollow/providerpool/internal/entry"
	"github.com/oakhollow/providerpool/internal/family"
	"github.com/oakhollow/providerpool/internal/persist"
	"github.com/oakhollow/providerpool/internal/poolstate"
)

// loadState hydrates a poolstate.State from the configured pool document, so
// operator commands can reuse entry.Entry's own mutators instead of
// duplicating field-level logic.
func loadState() (*poolstate.State, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	loaded, err := persist.Load(cfg.PoolFilePath)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", cfg.PoolFilePath, err)
	}
	state := poolstate.New()
	for f, entries := range loaded {
		state.SetFamily(f, entries)
	}
	return state, cfg.PoolFilePath, nil
}

func findEntry(state *poolstate.State, f, uuid string) (*entry.Entry, error) {
	e := state.FindByUUID(family.Family(f), uuid)
	if e == nil {
		return nil, fmt.Errorf("no entry %s/%s", f, uuid)
	}
	return e, nil
}

func mutateAndSave(f, uuid string, mutate func(*entry.Entry)) error {
	state, path, err := loadState()
	if err != nil {
		return err
	}
	e, err := findEntry(state, f, uuid)
	if err != nil {
		return err
	}
	mutate(e)

	store := persist.New(path, 0, state)
	store.ScheduleSave(family.Family(f))
	store.Flush()
	return nil
}

func disableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <family> <uuid>",
		Short: "Exclude an entry from selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAndSave(args[0], args[1], func(e *entry.Entry) { e.Disable() })
		},
	}
}

func enableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <family> <uuid>",
		Short: "Re-admit an entry to selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAndSave(args[0], args[1], func(e *entry.Entry) { e.Enable() })
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <family> <uuid>",
		Short: "Clear an entry's error and usage counters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateAndSave(args[0], args[1], func(e *entry.Entry) { e.ResetCounters() })
		},
	}
}
