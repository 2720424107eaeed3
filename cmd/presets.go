package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shouni/go-motion-director/pkg/domain"
)

// presetsCmd はスタイルプリセットの一覧を表示するのだ。
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "利用できるスタイルプリセットを表示するのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := domain.LoadStyleCatalogFile(loadConfig().StylePresetsFile)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPACING\tMOOD")
		for _, p := range catalog.Presets {
			id := p.ID
			if id == catalog.Default {
				id += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, p.Name, p.Pacing, p.Mood)
		}
		return w.Flush()
	},
}
