package formatter

import (
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/config"
)

// FormatAgents renders the configured agents in the given order.
func FormatAgents(ids []string, agents map[string]config.AgentConfig) string {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		a := agents[id]
		model := Dim("default")
		if a.Model != "" {
			model = a.Model
		}
		temp := Dim("--")
		if a.Temperature != nil {
			temp = fmt.Sprintf("%.1f", *a.Temperature)
		}
		rows = append(rows, []string{Bold(id), a.Name, a.Step, model, temp, fmt.Sprintf("%d", len(a.Guardrails))})
	}
	return Header("Agents") + "\n" +
		RenderTable([]string{"ID", "NAME", "STEP", "MODEL", "TEMP", "RULES"}, rows)
}
