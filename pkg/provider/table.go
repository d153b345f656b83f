package provider

import (
	"io"
	"strings"

	"github.com/dolthub/go-mysql-server/sql"
)

// DefaultChunkSize is the number of rows decoded per chunk during
// materialization
const DefaultChunkSize = 4096

// Table is the per-query handle the engine scans: an immutable inferred
// schema plus the raw NDJSON row set. Rows materialize lazily when the
// engine pulls the single partition, not when the table is resolved.
type Table struct {
	name        string
	schema      sql.Schema
	projected   sql.Schema
	projections []string
	ndjson      string
	chunkSize   int
}

var _ sql.Table = (*Table)(nil)
var _ sql.ProjectedTable = (*Table)(nil)

// NewTable creates a table handle over an inferred schema and row set
func NewTable(name string, schema sql.Schema, ndjson string, chunkSize int) *Table {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Table{
		name:      name,
		schema:    schema,
		projected: schema,
		ndjson:    ndjson,
		chunkSize: chunkSize,
	}
}

// Name implements sql.Table
func (t *Table) Name() string { return t.name }

// String implements fmt.Stringer
func (t *Table) String() string { return t.name }

// Schema returns the advertised schema, narrowed when a projection is set
func (t *Table) Schema() sql.Schema { return t.projected }

// Collation implements sql.Table
func (t *Table) Collation() sql.CollationID { return sql.Collation_Default }

// Partitions returns the table's single bounded partition
func (t *Table) Partitions(_ *sql.Context) (sql.PartitionIter, error) {
	return &partitionIter{}, nil
}

// PartitionRows materializes the row set for the partition. The whole result
// comes back as one in-memory batch; filters and limits are left to the
// engine above the scan.
func (t *Table) PartitionRows(_ *sql.Context, _ sql.Partition) (sql.RowIter, error) {
	rows, err := materialize(t.projected, t.ndjson, t.chunkSize)
	if err != nil {
		return nil, err
	}
	return sql.RowsToRowIter(rows...), nil
}

// WithProjections narrows the advertised schema to the named columns. A name
// that does not resolve leaves the full schema in place instead of failing
// the scan.
func (t *Table) WithProjections(colNames []string) sql.Table {
	narrowed := *t
	narrowed.projections = colNames

	projected := make(sql.Schema, 0, len(colNames))
	for _, name := range colNames {
		idx := indexOfColumn(t.schema, name)
		if idx < 0 {
			return &narrowed
		}
		projected = append(projected, t.schema[idx])
	}
	narrowed.projected = projected
	return &narrowed
}

func indexOfColumn(schema sql.Schema, name string) int {
	for i, col := range schema {
		if strings.EqualFold(col.Name, name) {
			return i
		}
	}
	return -1
}

// Projections implements sql.ProjectedTable
func (t *Table) Projections() []string { return t.projections }

type partition struct{}

// Key implements sql.Partition
func (partition) Key() []byte { return []byte("kuqu") }

type partitionIter struct {
	done bool
}

func (i *partitionIter) Next(_ *sql.Context) (sql.Partition, error) {
	if i.done {
		return nil, io.EOF
	}
	i.done = true
	return partition{}, nil
}

func (i *partitionIter) Close(_ *sql.Context) error { return nil }
