package extract

import (
	"fmt"
	"strings"

	"gridsync/pkg/models"
)

// Sampling used for every extraction call. Low temperature keeps the model
// transcribing rather than inventing.
const (
	samplingTemperature = 0.1
	samplingTopP        = 0.95
)

func headerPrompt() string {
	tags := make([]string, 0, len(models.TypeTags))
	for _, t := range models.TypeTags {
		tags = append(tags, fmt.Sprintf("%q", string(t)))
	}

	return `You are an expert in extracting data from images of tables and grids.
Extract ONLY the column headers from the top row of the data table in the image, and infer the most likely data type of each column from the visible content below it.

Rules:
1. Ignore application UI such as ribbons, toolbars and menus (e.g. "File", "Edit").
2. Only use the column headers directly above the grid of structured data (e.g. "Task Name", "Start", "Finish").
3. Return a JSON array where each element has "name" (the exact header text) and "type" (exactly one of ` + strings.Join(tags, ", ") + `).
   - Cells containing dates: "DATE".
   - Cells containing a date and a time: "DATETIME".
   - Cells containing names or email addresses: "CONTACT_LIST".
   - Cells repeating values from a small set: "PICKLIST".
   - Cells containing Yes/No, checkmarks or check boxes: "CHECKBOX".
   - Cells containing durations (e.g. "3h45m", "2d"): "DURATION".
   - Anything else, including plain numbers or text: "TEXT_NUMBER".
4. Preserve the header text exactly as shown.
5. Do not include explanations or any element that is not a header.
6. If no table is visible, return an empty array.

Example output:
[
  {"name": "Start Date", "type": "DATE"},
  {"name": "Assigned To", "type": "CONTACT_LIST"},
  {"name": "Complete?", "type": "CHECKBOX"}
]`
}

func rowPrompt(schema models.Schema, hints string) string {
	var cols strings.Builder
	for _, h := range schema {
		fmt.Fprintf(&cols, "- %s: %s\n", h.Name, h.Type)
	}

	return `You are an expert in extracting data from images of tables and grids.
Return a JSON array containing every row visible in the table in the screenshot. Each element is an object whose keys are exactly the column names below.

Columns and types:
` + cols.String() + `
Rules:
1. Extract ALL visible rows, preserving row and column order.
2. Return ONLY a valid JSON array of objects, one object per row.
3. For empty cells use null.
4. Keep numbers as JSON numbers, not strings.
5. DATE columns: format YYYY-MM-DD.
6. DATETIME columns: format YYYY-MM-DDTHH:MM:SSZ (UTC).
7. CONTACT_LIST columns: return a valid email address. If no address is legible, build one from the visible name as firstname.lastname@example.com, lowercase, with no spaces.
8. If there is no structured data in the image, return an empty array.
9. Do not include explanations or markdown.
Additional context: ` + hints + "\n"
}
