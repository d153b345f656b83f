package kubeurl

import (
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
)

// SupportedFormats is appended to invalid-format errors as user guidance
const SupportedFormats = `Supported formats:
- 'pod' => pods in the default namespace
- 'pod/something' => pods in the "something" namespace
- 'node/something' => for cluster-scoped resources the namespace segment is stored but ignored`

// URL is a parsed resource address: a concrete resource descriptor plus the
// namespace to list in. The namespace is kept verbatim even for
// cluster-scoped resources.
type URL struct {
	Resource  metav1.APIResource
	Namespace string
}

// Parse resolves an addressing string against the resource catalog.
//
// Grammar:
//   - "pod"           => resource, namespace defaulted via the context
//   - "pod/something" => resource in the "something" namespace
//
// Anything else is an invalid format; an empty string is rejected before
// splitting.
func Parse(raw string, kubeCtx Context, resources []metav1.APIResource) (*URL, error) {
	if raw == "" {
		return nil, kuquerrors.New(kuquerrors.ErrorCodeEmptyURL, "url is empty")
	}

	parts := strings.Split(raw, "/")

	var name, namespace string
	switch len(parts) {
	case 1:
		name = parts[0]
		namespace = kubeCtx.namespaceFor()
	case 2:
		name = parts[0]
		namespace = parts[1]
	default:
		return nil, kuquerrors.Newf(kuquerrors.ErrorCodeInvalidFormat,
			"invalid url format: %s\n\n%s", raw, SupportedFormats)
	}

	resource, ok := FindResource(name, resources)
	if !ok {
		return nil, kuquerrors.Newf(kuquerrors.ErrorCodeResourceNotFound,
			"resource '%s' not found", name)
	}

	return &URL{Resource: resource, Namespace: namespace}, nil
}

// FindResource returns the first catalog descriptor matching the name
func FindResource(name string, resources []metav1.APIResource) (metav1.APIResource, bool) {
	for _, resource := range resources {
		if matchResource(name, resource) {
			return resource, true
		}
	}
	return metav1.APIResource{}, false
}

// matchResource checks a descriptor against a resource name. Matching is
// exact equality on the plural name, the singular name, any short name, or
// the "<plural>.<group>" composite.
func matchResource(name string, resource metav1.APIResource) bool {
	if resource.Name == name || resource.SingularName == name {
		return true
	}
	for _, short := range resource.ShortNames {
		if short == name {
			return true
		}
	}
	return resource.Group != "" && resource.Name+"."+resource.Group == name
}
