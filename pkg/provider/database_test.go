package provider

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
	"github.com/ynqa/kuqu/pkg/kubeurl"
)

type stubLister struct {
	blob  string
	err   error
	calls int
	last  kubeurl.URL
}

func (s *stubLister) Fetch(_ context.Context, ref kubeurl.URL) (string, error) {
	s.calls++
	s.last = ref
	return s.blob, s.err
}

func testCatalog() []metav1.APIResource {
	return []metav1.APIResource{
		{
			Name:         "pods",
			SingularName: "pod",
			ShortNames:   []string{"po"},
			Namespaced:   true,
			Group:        "core",
			Version:      "v1",
			Kind:         "Pod",
		},
		{
			Name:         "nodes",
			SingularName: "node",
			Namespaced:   false,
			Group:        "core",
			Version:      "v1",
			Kind:         "Node",
		},
	}
}

func newTestDatabase(lister ObjectLister) *Database {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	kubeCtx := kubeurl.Context{Name: "prod", DefaultNamespace: "team-a"}
	return NewDatabase(testCatalog(), kubeCtx, lister, 0, log)
}

func TestGetTableResolvesAddressingString(t *testing.T) {
	lister := &stubLister{blob: `{"kind":"Pod","metadata":{"name":"web"}}`}
	db := newTestDatabase(lister)
	ctx := sql.NewEmptyContext()

	tbl, ok, err := db.GetTableInsensitive(ctx, "po")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "po", tbl.Name())
	assert.Equal(t, "pods", lister.last.Resource.Name)
	assert.Equal(t, "team-a", lister.last.Namespace)

	require.Len(t, tbl.Schema(), 2)
	assert.Equal(t, "kind", tbl.Schema()[0].Name)
	assert.Equal(t, "po", tbl.Schema()[0].Source)
}

func TestGetTableMemoizesHandles(t *testing.T) {
	lister := &stubLister{blob: `{"kind":"Pod"}`}
	db := newTestDatabase(lister)
	ctx := sql.NewEmptyContext()

	_, _, err := db.GetTableInsensitive(ctx, "pods")
	require.NoError(t, err)
	_, _, err = db.GetTableInsensitive(ctx, "PODS")
	require.NoError(t, err)

	assert.Equal(t, 1, lister.calls)
}

func TestGetTableEmptyResult(t *testing.T) {
	lister := &stubLister{blob: ""}
	db := newTestDatabase(lister)

	_, _, err := db.GetTableInsensitive(sql.NewEmptyContext(), "pods/kube-system")
	require.Error(t, err)
	assert.True(t, kuquerrors.IsErrorCode(err, kuquerrors.ErrorCodeEmptyResult))
	assert.Contains(t, err.Error(), "no items found for resource 'Pod' in namespace 'kube-system'")
}

func TestGetTableUnknownResource(t *testing.T) {
	db := newTestDatabase(&stubLister{})

	_, _, err := db.GetTableInsensitive(sql.NewEmptyContext(), "gadgets")
	require.Error(t, err)
	assert.True(t, kuquerrors.IsErrorCode(err, kuquerrors.ErrorCodeResourceNotFound))
}

func TestGetTableFetchFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("connection refused")}
	db := newTestDatabase(lister)

	_, _, err := db.GetTableInsensitive(sql.NewEmptyContext(), "pods")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetTableNamesListsCatalogPlurals(t *testing.T) {
	db := newTestDatabase(&stubLister{})

	names, err := db.GetTableNames(sql.NewEmptyContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"pods", "nodes"}, names)
}

func TestDatabaseProvider(t *testing.T) {
	db := newTestDatabase(&stubLister{})
	pro := NewDatabaseProvider(db)
	ctx := sql.NewEmptyContext()

	resolved, err := pro.Database(ctx, "kubernetes")
	require.NoError(t, err)
	assert.Equal(t, DatabaseName, resolved.Name())

	assert.True(t, pro.HasDatabase(ctx, "KUBERNETES"))
	assert.False(t, pro.HasDatabase(ctx, "mysql"))

	_, err = pro.Database(ctx, "mysql")
	require.Error(t, err)

	assert.Len(t, pro.AllDatabases(ctx), 1)
}
