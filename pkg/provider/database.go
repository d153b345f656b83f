package provider

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dolthub/go-mysql-server/sql"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
	"github.com/ynqa/kuqu/pkg/kubeurl"
	"github.com/ynqa/kuqu/pkg/tableschema"
)

// DatabaseName is the single database exposed to the SQL engine
const DatabaseName = "kubernetes"

// ObjectLister lists live objects for a resolved reference as NDJSON
type ObjectLister interface {
	Fetch(ctx context.Context, ref kubeurl.URL) (string, error)
}

// Database resolves table names dynamically. The table name is the resource
// addressing string ("pods", "po", "deployments.apps", "pods/kube-system");
// resolving one runs the parse, fetch and schema-inference pipeline against
// the live cluster.
type Database struct {
	resources []metav1.APIResource
	kubeCtx   kubeurl.Context
	lister    ObjectLister
	chunkSize int
	log       *slog.Logger

	// The analyzer can resolve the same table name several times while
	// planning a single query; handles are memoized for the lifetime of the
	// process, which runs exactly one query.
	mu      sync.Mutex
	handles map[string]*Table
}

var _ sql.Database = (*Database)(nil)

// NewDatabase creates the database backed by the given catalog and lister
func NewDatabase(resources []metav1.APIResource, kubeCtx kubeurl.Context, lister ObjectLister, chunkSize int, log *slog.Logger) *Database {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Database{
		resources: resources,
		kubeCtx:   kubeCtx,
		lister:    lister,
		chunkSize: chunkSize,
		log:       log,
		handles:   make(map[string]*Table),
	}
}

// Name implements sql.Database
func (d *Database) Name() string { return DatabaseName }

// GetTableInsensitive resolves a table name into a table handle
func (d *Database) GetTableInsensitive(ctx *sql.Context, tblName string) (sql.Table, bool, error) {
	key := strings.ToLower(tblName)

	d.mu.Lock()
	defer d.mu.Unlock()
	if handle, ok := d.handles[key]; ok {
		return handle, true, nil
	}

	handle, err := d.createTable(ctx, tblName)
	if err != nil {
		return nil, false, err
	}
	d.handles[key] = handle
	return handle, true, nil
}

// GetTableNames returns the plural names of every catalog resource
func (d *Database) GetTableNames(_ *sql.Context) ([]string, error) {
	names := make([]string, 0, len(d.resources))
	for _, resource := range d.resources {
		names = append(names, resource.Name)
	}
	return names, nil
}

func (d *Database) createTable(ctx context.Context, tblName string) (*Table, error) {
	ref, err := kubeurl.Parse(tblName, d.kubeCtx, d.resources)
	if err != nil {
		return nil, kuquerrors.Wrapf(err, "invalid kubernetes url '%s'", tblName)
	}

	ndjson, err := d.lister.Fetch(ctx, *ref)
	if err != nil {
		return nil, err
	}
	if ndjson == "" {
		return nil, kuquerrors.EmptyResultError(ref.Resource.Kind, ref.Namespace)
	}

	schema, err := tableschema.Infer(ndjson)
	if err != nil {
		return nil, err
	}
	for _, col := range schema {
		col.Source = tblName
	}

	d.log.Debug("created table handle",
		"table", tblName,
		"kind", ref.Resource.Kind,
		"namespace", ref.Namespace,
		"columns", len(schema))

	return NewTable(tblName, schema, ndjson, d.chunkSize), nil
}

// DatabaseProvider exposes the kubernetes database to the engine
type DatabaseProvider struct {
	db *Database
}

var _ sql.DatabaseProvider = (*DatabaseProvider)(nil)

// NewDatabaseProvider creates a provider around the database
func NewDatabaseProvider(db *Database) *DatabaseProvider {
	return &DatabaseProvider{db: db}
}

// Database implements sql.DatabaseProvider
func (p *DatabaseProvider) Database(_ *sql.Context, name string) (sql.Database, error) {
	if strings.EqualFold(name, DatabaseName) {
		return p.db, nil
	}
	return nil, sql.ErrDatabaseNotFound.New(name)
}

// HasDatabase implements sql.DatabaseProvider
func (p *DatabaseProvider) HasDatabase(_ *sql.Context, name string) bool {
	return strings.EqualFold(name, DatabaseName)
}

// AllDatabases implements sql.DatabaseProvider
func (p *DatabaseProvider) AllDatabases(_ *sql.Context) []sql.Database {
	return []sql.Database{p.db}
}
