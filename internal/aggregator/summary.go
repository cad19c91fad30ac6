package aggregator

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/provenance"
	"github.com/stacklok/marketplace-sync/internal/sources"
)

// SourceOutcome is the outcome of one source in a run
type SourceOutcome struct {
	Name    string
	Type    string
	Status  sources.Status
	Plugins int
	Reason  string
}

// ProvenanceRow is the merged provenance of one plugin
type ProvenanceRow struct {
	Plugin string
	Value  provenance.Value
}

// Summary describes a finished run
type Summary struct {
	OutputPath  string
	PluginCount int

	MarketplacesProcessed int
	SkillsProcessed       int
	SourcesSkipped        int
	SourcesFailed         int

	Sources    []SourceOutcome
	Provenance []ProvenanceRow
}

func (s *Summary) addSource(result *sources.Result) {
	outcome := SourceOutcome{
		Status:  result.Status,
		Plugins: len(result.Entries),
	}
	if result.Source != nil {
		outcome.Name = result.Source.DisplayName()
		outcome.Type = result.Source.Type
	}
	if result.Err != nil {
		outcome.Reason = result.Err.Reason
	}
	s.Sources = append(s.Sources, outcome)

	switch result.Status {
	case sources.StatusOK:
		switch outcome.Type {
		case config.SourceTypeMarketplace:
			s.MarketplacesProcessed++
		case config.SourceTypeSkill:
			s.SkillsProcessed++
		}
	case sources.StatusSkippedAlreadyProcessed:
		s.SourcesSkipped++
	case sources.StatusFailed:
		s.SourcesFailed++
	}
}

func (s *Summary) setCatalog(out *catalog.Catalog, tracker *provenance.Tracker) {
	s.PluginCount = len(out.Plugins)
	s.Provenance = make([]ProvenanceRow, 0, tracker.Len())
	for _, name := range tracker.Names() {
		s.Provenance = append(s.Provenance, ProvenanceRow{Plugin: name, Value: tracker.Value(name)})
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// Render writes the human-readable summary to w
func (s *Summary) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w,
		"=== Aggregation Summary ===\nTotal plugins: %d\nTotal marketplaces processed: %d\nTotal skills processed: %d\nOutput: %s\n",
		s.PluginCount, s.MarketplacesProcessed, s.SkillsProcessed, s.OutputPath); err != nil {
		return err
	}
	if s.SourcesSkipped > 0 || s.SourcesFailed > 0 {
		if _, err := fmt.Fprintf(w, "Sources skipped: %d, failed: %d\n", s.SourcesSkipped, s.SourcesFailed); err != nil {
			return err
		}
	}

	if len(s.Sources) > 0 {
		rows := make([][]string, 0, len(s.Sources))
		for _, src := range s.Sources {
			rows = append(rows, []string{src.Name, src.Type, src.Status.String(), strconv.Itoa(src.Plugins), src.Reason})
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", newTable("Source", "Type", "Status", "Plugins", "Reason").Rows(rows...).Render()); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(w, "\n=== Provenance Summary ===\n"); err != nil {
		return err
	}
	if len(s.Provenance) == 0 {
		_, err := fmt.Fprintln(w, "No plugins")
		return err
	}

	rows := make([][]string, 0, len(s.Provenance))
	for _, row := range s.Provenance {
		rows = append(rows, []string{row.Plugin, row.Value.String()})
	}
	_, err := fmt.Fprintln(w, newTable("Plugin", "Provenance").Rows(rows...).Render())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
}
