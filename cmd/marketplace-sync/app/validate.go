package app

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/marketplace-sync/internal/config"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the sync configuration without fetching anything",
		Long: `Load and validate the sync configuration, then list the sources it defines with
their defaults applied. Exits non-zero when the configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(config.WithConfigPath(v.GetString(flagConfig)))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Configuration is valid: %d source(s), output marketplace %q\n",
				len(cfg.Sources), cfg.Marketplace.Name); err != nil {
				return err
			}
			if len(cfg.Sources) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(out, sourcesTable(cfg.Sources).Render())
			return err
		},
	}
}

// sourcesTable lists every source with the field that identifies its output
func sourcesTable(srcs []config.SourceConfig) *table.Table {
	rows := make([][]string, 0, len(srcs))
	for i, src := range srcs {
		target := src.TagPrefix
		if src.Type == config.SourceTypeSkill {
			target = src.TargetPath
		}
		rows = append(rows, []string{fmt.Sprint(i), src.Type, src.DisplayName(), src.URL, src.Branch, target})
	}

	header := lipgloss.NewStyle().Bold(true)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Type", "Name", "URL", "Branch", "Tag / Target").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
}
