package console

import (
	"fmt"
	"strings"

	"github.com/soyeahso/shopdesk/internal/domain"
)

func writeText(b *strings.Builder, t domain.PlainText) {
	b.WriteString(t.Text)
	b.WriteByte('\n')
	for i, o := range t.QuickReplies {
		fmt.Fprintf(b, "  [%d] %s\n", i+1, o.Label)
	}
}

func writeSummary(b *strings.Builder, c domain.SummaryCard) {
	rule := strings.Repeat("─", 32)
	fmt.Fprintf(b, "┌%s\n│ %s\n├%s\n", rule, c.Title, rule)
	for _, r := range c.Rows {
		value := r.Value
		if value == "" {
			value = "-"
		}
		lines := strings.Split(value, "\n")
		fmt.Fprintf(b, "│ %s: %s\n", r.Label, lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(b, "│   %s\n", l)
		}
	}
	if c.Footer != "" {
		fmt.Fprintf(b, "├%s\n│ %s\n", rule, c.Footer)
	}
	fmt.Fprintf(b, "└%s\n", rule)
}

func writeLocation(b *strings.Builder, c domain.LocationCard) {
	fmt.Fprintf(b, "📍 %s\n", c.Name)
	for _, kv := range [][2]string{
		{"Address", c.Address},
		{"Phone", c.Phone},
		{"Hours", c.Hours},
		{"Map", c.MapURL},
	} {
		if kv[1] != "" {
			fmt.Fprintf(b, "   %s: %s\n", kv[0], kv[1])
		}
	}
}
