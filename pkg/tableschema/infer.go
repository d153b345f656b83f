package tableschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
)

// fieldKind is the inferred kind of one top-level field. Kinds only ever
// widen as more records are observed.
type fieldKind int

const (
	kindUnknown fieldKind = iota
	kindBoolean
	kindInteger
	kindFloat
	kindText
	kindDocument
)

// Infer derives a column schema from an NDJSON row set. It scans every line
// and widens a single shared schema so that the result covers all observed
// fields; fields missing from a record never narrow it. Columns keep the
// order their fields were first seen in.
func Infer(ndjson string) (sql.Schema, error) {
	lines := Lines(ndjson)
	if len(lines) == 0 {
		return nil, kuquerrors.New(kuquerrors.ErrorCodeSchemaInference,
			"cannot infer a schema from an empty row set")
	}

	var order []string
	kinds := make(map[string]fieldKind)
	for i, line := range lines {
		fields, err := DecodeFields(line)
		if err != nil {
			return nil, kuquerrors.SchemaInferenceError(err,
				fmt.Sprintf("malformed record at line %d", i+1))
		}
		for _, field := range fields {
			kind, seen := kinds[field.Name]
			if !seen {
				order = append(order, field.Name)
			}
			kinds[field.Name] = merge(kind, kindOf(field.Value))
		}
	}

	schema := make(sql.Schema, 0, len(order))
	for _, name := range order {
		schema = append(schema, &sql.Column{
			Name:     name,
			Type:     kinds[name].sqlType(),
			Nullable: true,
		})
	}
	return schema, nil
}

// Lines splits an NDJSON blob into its records. An empty blob has no lines.
func Lines(blob string) []string {
	if blob == "" {
		return nil
	}
	return strings.Split(blob, "\n")
}

// Field is one top-level field of a decoded NDJSON record
type Field struct {
	Name  string
	Value interface{}
}

// DecodeFields decodes one NDJSON record, preserving the order keys appear
// in. Numbers stay json.Number so integers and floats can be told apart.
func DecodeFields(line string) ([]Field, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("record is not a json object")
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: key, Value: value})
	}

	// Consume the closing brace so truncated records fail here.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func kindOf(value interface{}) fieldKind {
	switch v := value.(type) {
	case nil:
		return kindUnknown
	case bool:
		return kindBoolean
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return kindFloat
		}
		return kindInteger
	case string:
		return kindText
	default:
		// Objects and arrays stay structured.
		return kindDocument
	}
}

// merge widens two kinds into the narrowest kind covering both. Integer and
// float merge to float; any other disagreement falls back to a JSON document.
func merge(a, b fieldKind) fieldKind {
	switch {
	case a == b:
		return a
	case a == kindUnknown:
		return b
	case b == kindUnknown:
		return a
	case (a == kindInteger && b == kindFloat) || (a == kindFloat && b == kindInteger):
		return kindFloat
	default:
		return kindDocument
	}
}

func (k fieldKind) sqlType() sql.Type {
	switch k {
	case kindBoolean:
		return types.Boolean
	case kindInteger:
		return types.Int64
	case kindFloat:
		return types.Float64
	case kindText:
		return types.Text
	default:
		// Fields that were only ever null also land here; a JSON column can
		// hold whatever shows up later.
		return types.JSON
	}
}
