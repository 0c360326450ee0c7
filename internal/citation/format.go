package citation

import (
	"fmt"
	"strings"
)

// FormatList renders citations one per line as "- [type] text <url>".
func FormatList(cits []Citation) string {
	if len(cits) == 0 {
		return "Citations: none found.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Citations (%d):\n", len(cits)))
	for _, c := range cits {
		sb.WriteString(fmt.Sprintf("- [%s] %s", c.Type, c.Text))
		if c.URL != "" {
			sb.WriteString(" <" + c.URL + ">")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
