package fetch

import (
	"context"
	"encoding/json"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	kubedynamic "k8s.io/client-go/dynamic"

	"github.com/ynqa/kuqu/pkg/discovery"
	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
	"github.com/ynqa/kuqu/pkg/kubeurl"
)

// Fetcher lists live objects for a resolved resource reference and flattens
// them into newline-delimited JSON, one object per line.
type Fetcher struct {
	client kubedynamic.Interface
}

// New creates a new Fetcher on top of a dynamic client
func New(client kubedynamic.Interface) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch lists the objects addressed by the reference and returns the NDJSON
// blob. Zero objects yield an empty string; deciding whether that is an
// error is left to the caller.
func (f *Fetcher) Fetch(ctx context.Context, ref kubeurl.URL) (string, error) {
	gvr := GroupVersionResource(ref.Resource)

	var list *unstructured.UnstructuredList
	var err error
	if ref.Resource.Namespaced {
		list, err = f.client.Resource(gvr).Namespace(ref.Namespace).List(ctx, metav1.ListOptions{})
	} else {
		list, err = f.client.Resource(gvr).List(ctx, metav1.ListOptions{})
	}
	if err != nil {
		return "", kuquerrors.FetchError(err, ref.Resource.Kind, ref.Namespace)
	}

	lines := make([]string, 0, len(list.Items))
	for i := range list.Items {
		// managedFields is server-side-apply provenance data, pure noise in
		// query results.
		unstructured.RemoveNestedField(list.Items[i].Object, "metadata", "managedFields")

		raw, err := json.Marshal(list.Items[i].Object)
		if err != nil {
			return "", kuquerrors.FetchError(err, ref.Resource.Kind, ref.Namespace)
		}
		lines = append(lines, string(raw))
	}

	return strings.Join(lines, "\n"), nil
}

// GroupVersionResource maps a catalog descriptor to the GVR used by the
// dynamic client. The catalog marks core resources with the "core" group,
// which the API server knows as the empty group.
func GroupVersionResource(resource metav1.APIResource) schema.GroupVersionResource {
	group := resource.Group
	if group == discovery.CoreGroup {
		group = ""
	}
	return schema.GroupVersionResource{
		Group:    group,
		Version:  resource.Version,
		Resource: resource.Name,
	}
}
