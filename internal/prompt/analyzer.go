package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// Analyzer builds the analyzer instructions for dataSource. An empty
// dataSource yields the static variant used when the source arrives in the
// user message.
func Analyzer(dataSource string) string {
	var buf bytes.Buffer
	buf.WriteString("You are an Analyzer Agent. I will provide you with a data source and you need to analyze it.\n\n")
	writeSection(&buf, "Tool available", formatList([]string{
		"fetch_data(data_source) -> {raw_text, formatted_text, meta}",
	}))
	writeSection(&buf, "INSTRUCTIONS", formatNumbered([]string{
		`Call fetch_data EXACTLY ONCE with the data_source: "` + dataSource + `"`,
		`Use "formatted_text" as your working input. It is newline-separated if the source used '@' row delimiters; otherwise it may be free text/paragraphs.`,
		"Perform the analysis according to the TASK below.",
		"Produce output that matches the OUTPUT CONTRACT below EXACTLY (keys and structure). Output ONLY that JSON object and nothing else.",
		"Do not call any other tools. Do not print anything except the final JSON. Do not retry fetch_data.",
	}))
	writeSection(&buf, "TASK", task(dataSource))
	writeSection(&buf, "OUTPUT CONTRACT", analyzerContract)
	buf.WriteString("Data source to analyze: ")
	buf.WriteString(dataSource)
	return strings.TrimRight(buf.String(), "\n")
}

// task combines three framings of the same request so that smaller models
// see it phrased more than once.
func task(dataSource string) string {
	framings := []string{
		"Develop behavioral intervention actionable goals from the following content:",
		"Derive SMART goals that are specific, measurable, actionable, relevant, and time-bounded from the following content:",
		"Generate multiple SMART goals across domains (diet, activity, medication, monitoring, etc.) if the content allows:",
	}
	var b strings.Builder
	b.WriteString("You are a diabetes health coach. Read the following instructions and then generate SMART goals from the provided content. ")
	b.WriteString("Do not force a fixed number—produce as many SMART goals as are relevant, based on the text.\n\n")
	for i, f := range framings {
		fmt.Fprintf(&b, "Instruction %d:\n%s\n\n%s\n\n\n\n", i+1, f, dataSource)
	}
	b.WriteString("Final Task: Generate structured SMART goals, grouped by domain if possible. ")
	b.WriteString("If the document only supports 1 or 2 goals, output only those.")
	return b.String()
}

const analyzerContract = `{
  "smart_goals": [
    {
      "goal_number": "integer (starts at 1 and increments for each goal)",
      "description": "string (time-bound, measurable details)"
    }
  ]
}`
