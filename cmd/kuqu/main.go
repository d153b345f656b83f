package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/sql"
	kubediscovery "k8s.io/client-go/discovery"
	kubedynamic "k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/ynqa/kuqu/internal/config"
	"github.com/ynqa/kuqu/internal/logging"
	"github.com/ynqa/kuqu/pkg/discovery"
	kuquerrors "github.com/ynqa/kuqu/pkg/errors"
	"github.com/ynqa/kuqu/pkg/fetch"
	"github.com/ynqa/kuqu/pkg/kubeurl"
	"github.com/ynqa/kuqu/pkg/printer"
	"github.com/ynqa/kuqu/pkg/provider"
)

// CLI is the command-line surface: one query plus an optional context
type CLI struct {
	Context string `help:"Kubernetes context to use."`
	Debug   bool   `help:"Emit debug logs."`
	Query   string `arg:"" help:"SQL query to run against cluster resources."`
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("kuqu"),
		kong.Description("Query Kubernetes resources with SQL."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run(&cli))
}

func run(cli *CLI) error {
	cfg := config.New()
	log := logging.New(cfg.LogLevel, cli.Debug)

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if cfg.KubeConfigPath != "" {
		loadingRules.ExplicitPath = cfg.KubeConfigPath
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{CurrentContext: cli.Context},
	)

	rawConfig, err := clientConfig.RawConfig()
	if err != nil {
		return kuquerrors.Wrap(err, "failed to load kubeconfig")
	}
	kubeCtx, err := kubeurl.DetectContext(cli.Context, rawConfig)
	if err != nil {
		return err
	}
	log.Debug("resolved kubernetes context",
		"context", kubeCtx.Name, "defaultNamespace", kubeCtx.DefaultNamespace)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return kuquerrors.Wrap(err, "failed to build client configuration")
	}
	if cfg.ClientQPS > 0 {
		restConfig.QPS = float32(cfg.ClientQPS)
	}
	if cfg.ClientBurst > 0 {
		restConfig.Burst = cfg.ClientBurst
	}

	discoveryClient, err := kubediscovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return kuquerrors.KubernetesClientError(
			fmt.Sprintf("failed to create discovery client: %v", err))
	}
	dynamicClient, err := kubedynamic.NewForConfig(restConfig)
	if err != nil {
		return kuquerrors.KubernetesClientError(
			fmt.Sprintf("failed to create dynamic client: %v", err))
	}

	ctx := context.Background()

	discoverCtx := ctx
	if cfg.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		discoverCtx, cancel = context.WithTimeout(ctx, cfg.DiscoveryTimeout)
		defer cancel()
	}
	builder := discovery.NewBuilder(discovery.NewAPIClient(discoveryClient), log)
	resources, err := builder.Discover(discoverCtx)
	if err != nil {
		return err
	}

	db := provider.NewDatabase(resources, kubeCtx, fetch.New(dynamicClient), cfg.ChunkSize, log)
	engine := sqle.NewDefault(provider.NewDatabaseProvider(db))

	sctx := sql.NewContext(ctx, sql.WithSession(sql.NewBaseSession()))
	sctx.SetCurrentDatabase(provider.DatabaseName)

	schema, iter, err := engine.Query(sctx, cli.Query)
	if err != nil {
		return err
	}

	rows, err := drain(sctx, iter)
	if err != nil {
		return err
	}

	printer.Print(os.Stdout, schema, rows)
	return nil
}

func drain(ctx *sql.Context, iter sql.RowIter) ([]sql.Row, error) {
	var rows []sql.Row
	for {
		row, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = iter.Close(ctx)
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, iter.Close(ctx)
}
