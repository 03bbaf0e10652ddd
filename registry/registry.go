package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/pqhash/blobstore"
	"github.com/hupe1980/pqhash/quantization"
)

var (
	// ErrNoModel is returned when the latest model is requested from an empty registry.
	ErrNoModel = errors.New("registry: no model")

	// ErrModelExists is returned when saving under a name already in use.
	ErrModelExists = errors.New("registry: model already exists")

	// ErrModelNotFound is returned when loading an unknown name.
	ErrModelNotFound = fmt.Errorf("registry: model %w", blobstore.ErrNotFound)
)

// NamePrefix starts every generated model name.
const NamePrefix = "lsh-"

const nameLayout = "2006-01-02T15:04:05"

// NewModelName returns the name for a model created at t, for example
// "lsh-2024-03-01T12:30:00". t is converted to UTC and truncated to seconds,
// so two models created within the same second share a name.
func NewModelName(t time.Time) string {
	return NamePrefix + t.UTC().Format(nameLayout)
}

// ParseModelName returns the creation time encoded in a generated name.
func ParseModelName(name string) (time.Time, error) {
	ts, ok := strings.CutPrefix(name, NamePrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("registry: %q is not a generated model name", name)
	}
	return time.ParseInLocation(nameLayout, ts, time.UTC)
}

// Catalog tracks which models exist and which is the latest.
type Catalog interface {
	// Record registers a newly saved model.
	Record(ctx context.Context, name string, createdAt time.Time) error
	// Latest returns the most recent model name, or ErrNoModel.
	Latest(ctx context.Context) (string, error)
}

// Options configures a Registry.
type Options struct {
	// Prefix is the blob prefix for artifacts. Default: "models/".
	Prefix string
	// Catalog overrides latest-model resolution. By default the registry
	// lists its blobs and takes the greatest name.
	Catalog Catalog
	// ModelOptions are applied when loading artifacts.
	ModelOptions []quantization.Option
	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Registry is a named store of model artifacts.
type Registry struct {
	blobs   blobstore.BlobStore
	prefix  string
	catalog Catalog
	mopts   []quantization.Option
	now     func() time.Time
}

// New creates a Registry on blobs.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Prefix: "models/",
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		blobs:  blobs,
		prefix: opts.Prefix,
		mopts:  opts.ModelOptions,
		now:    opts.Now,
	}
	r.catalog = opts.Catalog
	if r.catalog == nil {
		r.catalog = listingCatalog{r}
	}
	return r
}

const artifactExt = ".pqh"

func (r *Registry) blobName(name string) string {
	return r.prefix + name + artifactExt
}

// Save persists m under name. Artifacts are immutable: saving an existing
// name fails with ErrModelExists. When the catalog rejects the record the
// artifact is removed again, leaving the name free.
func (r *Registry) Save(ctx context.Context, name string, m *quantization.Model) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("registry: invalid model name %q", name)
	}

	exists, err := r.blobs.Exists(ctx, r.blobName(name))
	if err != nil {
		return fmt.Errorf("registry: check %s: %w", name, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrModelExists, name)
	}

	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("registry: encode %s: %w", name, err)
	}
	if err := r.blobs.Put(ctx, r.blobName(name), data); err != nil {
		return fmt.Errorf("registry: write %s: %w", name, err)
	}
	if err := r.catalog.Record(ctx, name, r.now()); err != nil {
		if derr := r.blobs.Delete(context.WithoutCancel(ctx), r.blobName(name)); derr != nil {
			err = errors.Join(err, fmt.Errorf("remove artifact: %w", derr))
		}
		return fmt.Errorf("registry: record %s: %w", name, err)
	}
	return nil
}

// NextName returns NewModelName of the current time, or ErrModelExists when
// a model already holds that name. Callers check it before an expensive fit.
func (r *Registry) NextName(ctx context.Context) (string, error) {
	name := NewModelName(r.now())

	exists, err := r.blobs.Exists(ctx, r.blobName(name))
	if err != nil {
		return "", fmt.Errorf("registry: check %s: %w", name, err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrModelExists, name)
	}
	return name, nil
}

// Load reads and decodes the artifact stored under name.
func (r *Registry) Load(ctx context.Context, name string) (*quantization.Model, error) {
	data, err := r.blobs.Get(ctx, r.blobName(name))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return nil, fmt.Errorf("registry: read %s: %w", name, err)
	}

	m, err := quantization.FromArtifact(data, r.mopts...)
	if err != nil {
		return nil, fmt.Errorf("registry: decode %s: %w", name, err)
	}
	return m, nil
}

// List returns all stored model names in ascending order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	blobs, err := r.blobs.List(ctx, r.prefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, b := range blobs {
		name, ok := strings.CutSuffix(strings.TrimPrefix(b, r.prefix), artifactExt)
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// LatestName returns the most recent model name, or ErrNoModel.
func (r *Registry) LatestName(ctx context.Context) (string, error) {
	return r.catalog.Latest(ctx)
}

// Resolve returns name when it is non-empty and the latest name otherwise.
func (r *Registry) Resolve(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	return r.LatestName(ctx)
}

// listingCatalog derives the latest model from the blob listing.
type listingCatalog struct {
	r *Registry
}

func (listingCatalog) Record(context.Context, string, time.Time) error { return nil }

func (c listingCatalog) Latest(ctx context.Context) (string, error) {
	names, err := c.r.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoModel
	}
	return names[len(names)-1], nil
}
