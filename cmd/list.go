package cmd

import (
	"sort"

	"github.com/mj1618/browser-host/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Long:  "Load the extensions under the configured extensions directory and list their ids and install paths.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// extensionEntry is the output for one extension.
type extensionEntry struct {
	ID   string `yaml:"id"   json:"id"`
	Path string `yaml:"path" json:"path"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, _, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	paths := a.Messaging().ExtensionPaths()
	entries := make([]extensionEntry, 0, len(paths))
	for id, p := range paths {
		entries = append(entries, extensionEntry{ID: id, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return output.Fprint(cmd.OutOrStdout(), entries)
}
