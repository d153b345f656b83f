package discovery

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
)

type stubAPIClient struct {
	groups    *metav1.APIGroupList
	groupsErr error

	groupResources map[string]*metav1.APIResourceList
	groupErrs      map[string]error

	coreVersions    *metav1.APIVersions
	coreVersionsErr error

	coreResources map[string]*metav1.APIResourceList
	coreErrs      map[string]error
}

func (s *stubAPIClient) Groups(context.Context) (*metav1.APIGroupList, error) {
	return s.groups, s.groupsErr
}

func (s *stubAPIClient) GroupResources(_ context.Context, groupVersion string) (*metav1.APIResourceList, error) {
	if err, ok := s.groupErrs[groupVersion]; ok {
		return nil, err
	}
	return s.groupResources[groupVersion], nil
}

func (s *stubAPIClient) CoreVersions(context.Context) (*metav1.APIVersions, error) {
	return s.coreVersions, s.coreVersionsErr
}

func (s *stubAPIClient) CoreResources(_ context.Context, version string) (*metav1.APIResourceList, error) {
	if err, ok := s.coreErrs[version]; ok {
		return nil, err
	}
	return s.coreResources[version], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubClient() *stubAPIClient {
	return &stubAPIClient{
		groups: &metav1.APIGroupList{
			Groups: []metav1.APIGroup{
				{
					Name: "apps",
					Versions: []metav1.GroupVersionForDiscovery{
						{GroupVersion: "apps/v1", Version: "v1"},
					},
				},
				{
					Name: "batch",
					Versions: []metav1.GroupVersionForDiscovery{
						{GroupVersion: "batch/v1", Version: "v1"},
					},
				},
			},
		},
		groupResources: map[string]*metav1.APIResourceList{
			"apps/v1": {
				APIResources: []metav1.APIResource{
					{Name: "deployments", Kind: "Deployment", Namespaced: true},
					{Name: "deployments/scale", Kind: "Scale", Namespaced: true},
				},
			},
			"batch/v1": {
				APIResources: []metav1.APIResource{
					{Name: "jobs", Kind: "Job", Namespaced: true},
				},
			},
		},
		coreVersions: &metav1.APIVersions{Versions: []string{"v1"}},
		coreResources: map[string]*metav1.APIResourceList{
			"v1": {
				APIResources: []metav1.APIResource{
					{Name: "pods", Kind: "Pod", Namespaced: true},
					{Name: "pods/status", Kind: "Pod", Namespaced: true},
					{Name: "nodes", Kind: "Node", Namespaced: false},
				},
			},
		},
	}
}

func TestDiscoverBackfillsGroupAndVersion(t *testing.T) {
	builder := NewBuilder(newStubClient(), testLogger())

	catalog, err := builder.Discover(context.Background())
	require.NoError(t, err)

	byName := make(map[string]metav1.APIResource)
	for _, resource := range catalog {
		byName[resource.Name] = resource
	}

	deployments := byName["deployments"]
	assert.Equal(t, "apps", deployments.Group)
	assert.Equal(t, "v1", deployments.Version)

	pods := byName["pods"]
	assert.Equal(t, CoreGroup, pods.Group)
	assert.Equal(t, "v1", pods.Version)
}

func TestDiscoverExcludesSubresources(t *testing.T) {
	builder := NewBuilder(newStubClient(), testLogger())

	catalog, err := builder.Discover(context.Background())
	require.NoError(t, err)

	for _, resource := range catalog {
		assert.NotContains(t, resource.Name, "/")
	}
	assert.Len(t, catalog, 4)
}

func TestDiscoverOrdersGroupedBeforeCore(t *testing.T) {
	builder := NewBuilder(newStubClient(), testLogger())

	catalog, err := builder.Discover(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog, 4)
	assert.Equal(t, "deployments", catalog[0].Name)
	assert.Equal(t, "jobs", catalog[1].Name)
	assert.Equal(t, "pods", catalog[2].Name)
	assert.Equal(t, "nodes", catalog[3].Name)
}

func TestDiscoverToleratesGroupedPairFailure(t *testing.T) {
	client := newStubClient()
	client.groupErrs = map[string]error{
		"apps/v1": errors.New("the server is currently unable to handle the request"),
	}
	builder := NewBuilder(client, testLogger())

	catalog, err := builder.Discover(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(catalog))
	for _, resource := range catalog {
		names = append(names, resource.Name)
	}
	assert.NotContains(t, names, "deployments")
	assert.Contains(t, names, "jobs")
	assert.Contains(t, names, "pods")
}

func TestDiscoverFailsOnCoreVersionFailure(t *testing.T) {
	client := newStubClient()
	client.coreErrs = map[string]error{
		"v1": errors.New("connection refused"),
	}
	builder := NewBuilder(client, testLogger())

	_, err := builder.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, kuquerrors.IsErrorCode(err, kuquerrors.ErrorCodeDiscovery))
}

func TestDiscoverFailsWhenGroupListingFails(t *testing.T) {
	client := newStubClient()
	client.groupsErr = errors.New("connection refused")
	builder := NewBuilder(client, testLogger())

	_, err := builder.Discover(context.Background())
	require.Error(t, err)
	assert.True(t, kuquerrors.IsErrorCode(err, kuquerrors.ErrorCodeDiscovery))
}
