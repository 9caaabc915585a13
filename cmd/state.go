package cmd

import (
	"github.com/mj1618/browser-host/internal/output"
	"github.com/mj1618/browser-host/internal/placement"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted window placement",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted window placement",
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the persisted window placement to defaults",
	RunE:  runStateReset,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
}

// stateResult is the output of the state commands.
type stateResult struct {
	Path      string      `yaml:"path"      json:"path"`
	Placement interface{} `yaml:"placement" json:"placement"`
}

func placementStore() (*placement.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return placement.NewStore(cfg.PlacementPath(), zap.NewNop()), nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	store, err := placementStore()
	if err != nil {
		return err
	}
	return output.Fprint(cmd.OutOrStdout(), stateResult{Path: store.Path(), Placement: store.Load()})
}

func runStateReset(cmd *cobra.Command, args []string) error {
	store, err := placementStore()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	return output.Fprint(cmd.OutOrStdout(), stateResult{Path: store.Path(), Placement: store.Load()})
}
