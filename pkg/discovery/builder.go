package discovery

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
)

// Builder discovers the catalog of queryable resource types. The catalog is
// built once per process and never mutated afterwards.
type Builder struct {
	client APIClient
	log    *slog.Logger
}

// NewBuilder creates a new catalog builder
func NewBuilder(client APIClient, log *slog.Logger) *Builder {
	return &Builder{client: client, log: log}
}

// Discover lists every resource type the cluster serves, grouped and core,
// with group and version back-filled on each descriptor. Subresources are
// excluded.
//
// Failure handling is asymmetric on purpose: a grouped (group, version) pair
// that fails to answer contributes no resources, while any core version
// failing aborts discovery.
func (b *Builder) Discover(ctx context.Context) ([]metav1.APIResource, error) {
	grouped, err := b.groupedResources(ctx)
	if err != nil {
		return nil, kuquerrors.DiscoveryError(err, "failed to discover grouped api resources")
	}

	core, err := b.coreResources(ctx)
	if err != nil {
		return nil, kuquerrors.DiscoveryError(err, "failed to discover core api resources")
	}

	all := append(grouped, core...)
	catalog := make([]metav1.APIResource, 0, len(all))
	for _, resource := range all {
		// A plural name containing "/" denotes a subresource such as
		// "pods/status", a facet of a parent object rather than a
		// collection that can be listed.
		if strings.Contains(resource.Name, "/") {
			continue
		}
		catalog = append(catalog, resource)
	}

	b.log.Debug("discovered api resources", "count", len(catalog))
	return catalog, nil
}

// groupedResources fans out one resource-type fetch per (group, version)
// pair. Results keep the order the server listed the pairs in, so catalog
// lookups stay deterministic.
func (b *Builder) groupedResources(ctx context.Context) ([]metav1.APIResource, error) {
	groupList, err := b.client.Groups(ctx)
	if err != nil {
		return nil, err
	}

	var pairs []string
	for _, group := range groupList.Groups {
		// The legacy core group shows up under /apis with an empty name on
		// some discovery paths; it is handled separately via /api.
		if group.Name == "" {
			continue
		}
		for _, version := range group.Versions {
			pairs = append(pairs, version.GroupVersion)
		}
	}

	results := make([][]metav1.APIResource, len(pairs))
	var wg sync.WaitGroup
	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair string) {
			defer wg.Done()
			list, err := b.client.GroupResources(ctx, pair)
			if err != nil {
				b.log.Debug("skipping api group version", "groupVersion", pair, "err", err)
				return
			}
			results[i] = backfill(list.APIResources, pair)
		}(i, pair)
	}
	wg.Wait()

	var resources []metav1.APIResource
	for _, r := range results {
		resources = append(resources, r...)
	}
	return resources, nil
}

// coreResources fetches the resource types of every core API version
// concurrently. The first failure aborts the whole group.
func (b *Builder) coreResources(ctx context.Context) ([]metav1.APIResource, error) {
	versions, err := b.client.CoreVersions(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]metav1.APIResource, len(versions.Versions))
	g, gctx := errgroup.WithContext(ctx)
	for i, version := range versions.Versions {
		i, version := i, version
		g.Go(func() error {
			list, err := b.client.CoreResources(gctx, version)
			if err != nil {
				return err
			}
			for j := range list.APIResources {
				list.APIResources[j].Group = CoreGroup
				list.APIResources[j].Version = version
			}
			results[i] = list.APIResources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var resources []metav1.APIResource
	for _, r := range results {
		resources = append(resources, r...)
	}
	return resources, nil
}

// backfill sets group and version on each descriptor; the per-version
// resource lists returned by the API server leave both empty.
func backfill(resources []metav1.APIResource, groupVersion string) []metav1.APIResource {
	group, version, found := strings.Cut(groupVersion, "/")
	if !found {
		return resources
	}
	for i := range resources {
		resources[i].Group = group
		resources[i].Version = version
	}
	return resources
}
