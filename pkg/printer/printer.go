package printer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"
	"github.com/olekukonko/tablewriter"
)

// Print renders a result set as a bordered text table
func Print(w io.Writer, schema sql.Schema, rows []sql.Row) {
	headers := make([]string, 0, len(schema))
	for _, col := range schema {
		headers = append(headers, col.Name)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, value := range row {
			cells = append(cells, formatValue(value))
		}
		table.Append(cells)
	}

	table.Render()
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case types.JSONDocument:
		raw, err := json.Marshal(v.Val)
		if err != nil {
			return fmt.Sprintf("%v", v.Val)
		}
		return string(raw)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
