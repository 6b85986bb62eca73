// Package prompt renders the fixed analyzer and evaluator instructions.
// Every function is deterministic in its inputs.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// FileContextLimit is the number of characters of a prefetched document
// inlined into a prompt for models that cannot call tools.
const FileContextLimit = 2000

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString(title)
	buf.WriteString(":\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatNumbered(items []string) string {
	var buf strings.Builder
	for i, item := range items {
		fmt.Fprintf(&buf, "%d) %s\n", i+1, item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DataSourceMessage is the user message naming the source to analyze.
func DataSourceMessage(source string) string {
	return "DATA_SOURCE: " + source
}

// FileContext inlines the head of a fetched document.
func FileContext(formatted string) string {
	r := []rune(formatted)
	if len(r) > FileContextLimit {
		r = r[:FileContextLimit]
	}
	return "\n\nFile content:\n" + string(r) + "..."
}
