package discovery

import (
	"context"
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
)

// CoreGroup is the group name recorded on descriptors of the ungrouped core
// API. The API server leaves it empty; using an explicit marker keeps core
// resources addressable as e.g. "pods.core".
const CoreGroup = "core"

// APIClient is the slice of the Kubernetes discovery surface the catalog
// builder needs.
type APIClient interface {
	// Groups lists the grouped API families served under /apis.
	Groups(ctx context.Context) (*metav1.APIGroupList, error)
	// GroupResources lists the resource types served by one group/version pair.
	GroupResources(ctx context.Context, groupVersion string) (*metav1.APIResourceList, error)
	// CoreVersions lists the supported versions of the core API under /api.
	CoreVersions(ctx context.Context) (*metav1.APIVersions, error)
	// CoreResources lists the resource types of one core API version.
	CoreResources(ctx context.Context, version string) (*metav1.APIResourceList, error)
}

type discoveryAPIClient struct {
	client discovery.DiscoveryInterface
}

// NewAPIClient wraps a client-go discovery client as an APIClient
func NewAPIClient(client discovery.DiscoveryInterface) APIClient {
	return &discoveryAPIClient{client: client}
}

func (c *discoveryAPIClient) Groups(_ context.Context) (*metav1.APIGroupList, error) {
	return c.client.ServerGroups()
}

func (c *discoveryAPIClient) GroupResources(_ context.Context, groupVersion string) (*metav1.APIResourceList, error) {
	return c.client.ServerResourcesForGroupVersion(groupVersion)
}

func (c *discoveryAPIClient) CoreVersions(ctx context.Context) (*metav1.APIVersions, error) {
	raw, err := c.client.RESTClient().Get().AbsPath("/api").Do(ctx).Raw()
	if err != nil {
		return nil, err
	}
	versions := &metav1.APIVersions{}
	if err := json.Unmarshal(raw, versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *discoveryAPIClient) CoreResources(ctx context.Context, version string) (*metav1.APIResourceList, error) {
	raw, err := c.client.RESTClient().Get().AbsPath("/api", version).Do(ctx).Raw()
	if err != nil {
		return nil, err
	}
	list := &metav1.APIResourceList{}
	if err := json.Unmarshal(raw, list); err != nil {
		return nil, err
	}
	return list, nil
}
