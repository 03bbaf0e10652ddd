package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/pqhash"
	"github.com/hupe1980/pqhash/blobstore"
	miniostore "github.com/hupe1980/pqhash/blobstore/minio"
	s3store "github.com/hupe1980/pqhash/blobstore/s3"
	"github.com/hupe1980/pqhash/internal/config"
	"github.com/hupe1980/pqhash/metric"
	"github.com/hupe1980/pqhash/quantization"
	"github.com/hupe1980/pqhash/registry"
	ddbcatalog "github.com/hupe1980/pqhash/registry/dynamodb"
	"github.com/hupe1980/pqhash/searchindex"
	"github.com/hupe1980/pqhash/searchindex/elastic"
	"github.com/hupe1980/pqhash/searchindex/memory"
)

func newLogger(c config.LogConfig) (*pqhash.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.Format, "json") {
		return pqhash.NewJSONLogger(level), nil
	}
	return pqhash.NewTextLogger(level), nil
}

// newBlobStore builds the storage backend selected once at startup.
func newBlobStore(ctx context.Context, c config.StorageConfig) (blobstore.BlobStore, error) {
	switch c.Backend {
	case "local":
		return blobstore.NewLocalStore(c.DataDir), nil
	case "s3":
		s, err := s3store.New(ctx, c.Bucket, func(o *s3store.Options) {
			o.Prefix = c.Prefix
			o.Region = c.Region
			o.Profile = c.Profile
			o.RoleARN = c.RoleARN
			o.Endpoint = c.Endpoint
			o.UsePathStyle = c.UsePathStyle
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "minio":
		s, err := miniostore.Dial(miniostore.Config{
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Region:    c.Region,
			Secure:    c.UseSSL,
		}, c.Bucket, c.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

func modelOptions(c *config.Config) ([]quantization.Option, error) {
	compression, err := quantization.ParseCompression(c.Model.Compression)
	if err != nil {
		return nil, err
	}
	return []quantization.Option{quantization.WithCompression(compression)}, nil
}

// newRegistry opens the model registry on blobs. Artifacts are cached in
// memory and latest-model resolution uses DynamoDB when a table is configured.
func newRegistry(ctx context.Context, c *config.Config, blobs blobstore.BlobStore) (*registry.Registry, error) {
	cached, err := blobstore.NewCachingStore(blobs, c.Registry.CacheSize)
	if err != nil {
		return nil, err
	}

	mopts, err := modelOptions(c)
	if err != nil {
		return nil, err
	}

	var catalog registry.Catalog
	if c.Registry.DynamoDBTable != "" {
		client, err := newDynamoDBClient(ctx, c.Storage, c.Registry.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		catalog = ddbcatalog.NewCatalog(client, c.Registry.DynamoDBTable, c.Registry.Namespace)
	}

	return registry.New(cached, func(o *registry.Options) {
		o.Catalog = catalog
		o.ModelOptions = mopts
	}), nil
}

func newDynamoDBClient(ctx context.Context, c config.StorageConfig, endpoint string) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func newSearchIndex(c config.SearchConfig) (searchindex.Index, error) {
	switch c.Backend {
	case "elastic":
		return elastic.New(elastic.Config{
			Addresses: c.Addresses,
			Username:  c.Username,
			Password:  c.Password,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", c.Backend)
	}
}

// startMetrics serves /metrics when an address is configured and returns the
// collector to pass to pipelines plus a shutdown function.
func startMetrics(c config.MetricsConfig, l *pqhash.Logger) (pqhash.MetricsCollector, func(), error) {
	if c.Addr == "" {
		return pqhash.NoopMetricsCollector{}, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metric.NewPrometheusCollector(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen %s: %w", c.Addr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server failed", "error", err)
		}
	}()
	l.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	return collector, shutdown, nil
}
