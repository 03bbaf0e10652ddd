// Package elastic implements searchindex.Index on Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hupe1980/pqhash/codec"
	"github.com/hupe1980/pqhash/searchindex"
)

// Config configures the Elasticsearch client.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Transport overrides the HTTP transport (tests, custom TLS).
	Transport http.RoundTripper
}

// Index implements searchindex.Index.
type Index struct {
	client *elasticsearch.Client
	codec  codec.Codec
}

var _ searchindex.Index = (*Index)(nil)

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 64 << 10

// New creates an Index from cfg.
func New(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *elasticsearch.Client) *Index {
	return &Index{client: client, codec: codec.Default}
}

func (i *Index) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := i.client.Indices.Exists([]string{index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, i.responseError("index exists", res)
	}
}

func (i *Index) DeleteIndex(ctx context.Context, index string) error {
	res, err := i.client.Indices.Delete([]string{index}, i.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return i.responseError("delete index", res)
	}
	return nil
}

func (i *Index) CreateIndex(ctx context.Context, index string) error {
	body, err := i.codec.Marshal(searchindex.Mapping())
	if err != nil {
		return err
	}

	res, err := i.client.Indices.Create(index,
		i.client.Indices.Create.WithBody(bytes.NewReader(body)),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		rerr := i.responseError("create index", res)
		if rerr.Type == "resource_already_exists_exception" {
			return fmt.Errorf("%w: %s", searchindex.ErrIndexExists, index)
		}
		return rerr
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, index, id string, doc searchindex.Document) error {
	if doc.Hash == nil {
		doc.Hash = []string{}
	}
	body, err := i.codec.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := i.client.Index(index, bytes.NewReader(body),
		i.client.Index.WithDocumentID(id),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		return i.responseError("index document "+id, res)
	}
	return nil
}

func (i *Index) DocumentExists(ctx context.Context, index, id string) (bool, error) {
	res, err := i.client.Exists(index, id, i.client.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, i.responseError("document exists", res)
	}
}

// Search runs a bool query: one constant-score term clause per hash token,
// so each collision adds exactly one, plus a match clause on the description.
func (i *Index) Search(ctx context.Context, index string, q searchindex.Query) ([]searchindex.Hit, error) {
	size := q.Size
	if size <= 0 {
		size = searchindex.DefaultSize
	}

	body, err := i.codec.Marshal(buildQuery(q, size))
	if err != nil {
		return nil, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", searchindex.ErrIndexNotFound, index)
	}
	if res.IsError() {
		return nil, i.responseError("search", res)
	}

	var sr searchResponse
	if err := i.decode(res.Body, &sr); err != nil {
		return nil, fmt.Errorf("elastic: decode search response: %w", err)
	}

	hits := make([]searchindex.Hit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		hits = append(hits, searchindex.Hit{
			ID:       h.ID,
			Score:    h.Score,
			Document: h.Source,
		})
	}
	return hits, nil
}

func buildQuery(q searchindex.Query, size int) map[string]any {
	should := make([]map[string]any, 0, len(q.Hash)+1)
	for _, tok := range q.Hash {
		should = append(should, map[string]any{
			"constant_score": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{searchindex.HashField: tok},
				},
				"boost": 1,
			},
		})
	}
	if q.Text != "" {
		should = append(should, map[string]any{
			"match": map[string]any{searchindex.DescriptionField: q.Text},
		})
	}

	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string               `json:"_id"`
			Score  float64              `json:"_score"`
			Source searchindex.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func (i *Index) decode(r io.Reader, v any) error {
	return i.codec.Decode(r, v)
}

// ResponseError is returned when Elasticsearch rejects a request.
type ResponseError struct {
	Op     string
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elastic: %s: [%d] %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("elastic: %s: [%d] %s: %s", e.Op, e.Status, e.Type, e.Reason)
}

// responseError reads the body once; it is the only reader of a failed response.
func (i *Index) responseError(op string, res *esapi.Response) *ResponseError {
	rerr := &ResponseError{Op: op, Status: res.StatusCode}
	if res.Body == nil {
		return rerr
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil {
		rerr.Reason = err.Error()
		return rerr
	}

	var e errorResponse
	if len(data) > 0 && i.codec.Unmarshal(data, &e) == nil && e.Error.Type != "" {
		rerr.Type, rerr.Reason = e.Error.Type, e.Error.Reason
		return rerr
	}
	rerr.Reason = strings.TrimSpace(string(data))
	return rerr
}

func drain(res *esapi.Response) {
	if res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
