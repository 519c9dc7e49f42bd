package google

import (
	"fmt"
	"strings"

	"expenses/internal/core"
)

func toRow(e core.Expense) []any {
	return []any{
		e.ID,
		string(e.Owner),
		e.Date.UTC().Format("2006-01-02"),
		e.Title,
		e.Category,
		e.Amount.Float(),
	}
}

// a1 builds an A1 range on sheet. The name is always quoted so spaces,
// apostrophes and names that look like cell references are read literally.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

func rowRange(sheet string, row int) string {
	return a1(sheet, fmt.Sprintf("A%d:%s%d", row, lastColumn, row))
}

// rowIndexOf scans column A values and returns the 1-based row holding id.
func rowIndexOf(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}
