package provider

import (
	"encoding/json"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
	"github.com/ynqa/kuqu/pkg/tableschema"
)

// materialize parses the NDJSON blob into rows matching the schema, in
// bounded-size chunks. A chunk failing to decode after at least one chunk
// succeeded truncates the stream there; the first chunk failing fails the
// whole scan. An empty blob yields zero rows without error.
func materialize(schema sql.Schema, ndjson string, chunkSize int) ([]sql.Row, error) {
	lines := tableschema.Lines(ndjson)
	if len(lines) == 0 {
		return nil, nil
	}

	var rows []sql.Row
	for start := 0; start < len(lines); start += chunkSize {
		end := min(start+chunkSize, len(lines))
		chunk, err := decodeChunk(schema, lines[start:end])
		if err != nil {
			if start > 0 {
				// Partial results accepted once a chunk made it through.
				break
			}
			return nil, kuquerrors.RowParseError(err, "failed to materialize rows")
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

func decodeChunk(schema sql.Schema, lines []string) ([]sql.Row, error) {
	rows := make([]sql.Row, 0, len(lines))
	for _, line := range lines {
		fields, err := tableschema.DecodeFields(line)
		if err != nil {
			return nil, err
		}

		values := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			values[field.Name] = field.Value
		}

		row := make(sql.Row, len(schema))
		for i, col := range schema {
			row[i] = coerce(values[col.Name], col.Type)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// coerce converts a decoded JSON value into the canonical Go value for the
// column type. The schema was inferred from the same blob, so mismatches
// cannot occur here; anything unexpected is kept as a JSON document.
func coerce(value interface{}, typ sql.Type) interface{} {
	if value == nil {
		return nil
	}

	switch typ {
	case types.Boolean:
		if b, ok := value.(bool); ok {
			if b {
				return int8(1)
			}
			return int8(0)
		}
	case types.Int64:
		if n, ok := value.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
			if f, err := n.Float64(); err == nil {
				return int64(f)
			}
		}
	case types.Float64:
		if n, ok := value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	case types.Text:
		if s, ok := value.(string); ok {
			return s
		}
	}

	return types.JSONDocument{Val: value}
}
