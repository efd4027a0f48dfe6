package reminder

import (
	"fmt"
	"strings"
)

// Agenda renders items as a Markdown document: one "##" section per calendar
// day, in the order the items are given, with one bullet per reminder.
func Agenda(title string, items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	if len(items) == 0 {
		b.WriteString("\n_No reminders._\n")
		return b.String()
	}

	day := ""
	for _, it := range items {
		heading := fmt.Sprintf("%04d-%02d-%02d", it.Time.Year, it.Time.Month, it.Time.Day)
		if heading != day {
			fmt.Fprintf(&b, "\n## %s\n\n", heading)
			day = heading
		}
		text := escapeMarkdown(it.Transcript)
		if text == "" {
			text = "_(no transcript)_"
		}
		fmt.Fprintf(&b, "- **%s** %s\n", it.Display, text)
	}
	return b.String()
}

// markdownEscaper backslash-escapes characters that would start inline markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(CleanTranscript(s))
}
