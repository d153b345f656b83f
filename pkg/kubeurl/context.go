package kubeurl

import (
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
)

// DefaultNamespace is the final fallback of the namespace resolution chain
const DefaultNamespace = "default"

// Context is the kubeconfig context a query runs against, resolved once at
// startup and threaded explicitly through the pipeline.
type Context struct {
	// Name of the kubeconfig context.
	Name string
	// DefaultNamespace recorded for the context, empty when none is set or
	// the kubeconfig could not be read.
	DefaultNamespace string
}

// DetectContext resolves the context for this invocation.
//
// Priority:
//  1. the explicitly requested context name
//  2. the current context recorded in the kubeconfig
//
// It fails when neither is set. The context's default namespace is looked up
// from the kubeconfig; a context entry missing there leaves it empty rather
// than failing.
func DetectContext(explicit string, kubeconfig clientcmdapi.Config) (Context, error) {
	name := explicit
	if name == "" {
		name = kubeconfig.CurrentContext
	}
	if name == "" {
		return Context{}, kuquerrors.KubernetesClientError("current-context is not set in kubeconfig")
	}

	resolved := Context{Name: name}
	if kubeCtx, ok := kubeconfig.Contexts[name]; ok && kubeCtx != nil {
		resolved.DefaultNamespace = kubeCtx.Namespace
	}
	return resolved, nil
}

// namespaceFor returns the namespace to use when the addressing string did
// not carry one: the context default if recorded, otherwise "default".
func (c Context) namespaceFor() string {
	if c.DefaultNamespace != "" {
		return c.DefaultNamespace
	}
	return DefaultNamespace
}
