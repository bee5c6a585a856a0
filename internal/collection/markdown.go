package collection

import (
	"fmt"
	"strings"
	"time"
)

// Markdown renders the list as an outline: one heading per collection,
// one link per tab, in stored order.
func Markdown(list []Collection, exportedAt time.Time) string {
	var b strings.Builder
	b.WriteString("# Tab collections\n\n")
	fmt.Fprintf(&b, "_Exported %s_\n", exportedAt.UTC().Format(time.RFC3339))

	for _, c := range list {
		fmt.Fprintf(&b, "\n## %s\n\n", escapeMarkdown(c.Name))
		if len(c.Tabs) == 0 {
			b.WriteString("_No tabs_\n")
			continue
		}
		for _, t := range c.Tabs {
			fmt.Fprintf(&b, "- [%s](<%s>)\n", escapeMarkdown(DisplayTitle(t.Title, t.URL)), t.URL)
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`#`, `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
