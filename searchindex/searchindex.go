// Package searchindex defines the keyword search index the pipeline publishes
// hash codes and descriptions to.
//
// Each model gets its own index, named NormalizeName(modelName). Documents
// carry the hash tokens as exact-match keywords and the description as
// analyzed text, so a query can combine hash collisions with free text.
package searchindex

import (
	"context"
	"errors"
	"strings"
)

const (
	// HashField holds the hash tokens as exact-match keywords.
	HashField = "lsh-hash"
	// DescriptionField holds the analyzed description text.
	DescriptionField = "description"
	// DefaultSize is the number of hits returned when Query.Size is zero.
	DefaultSize = 10
)

var (
	// ErrIndexNotFound is returned when operating on an index that does not exist.
	ErrIndexNotFound = errors.New("searchindex: index not found")
	// ErrIndexExists is returned by CreateIndex when the index already exists.
	ErrIndexExists = errors.New("searchindex: index already exists")
)

// Document is the indexed representation of one item.
type Document struct {
	Hash        []string `json:"lsh-hash"`
	Description string   `json:"description"`
}

// Query selects documents by hash-token collisions and description text.
// Each matching hash token adds one to a document's score.
type Query struct {
	Hash []string
	Text string
	Size int
}

// Hit is a scored search result.
type Hit struct {
	ID       string
	Score    float64
	Document Document
}

// Index is a keyword search index with per-model indexes.
//
// Implementations must be safe for concurrent use.
type Index interface {
	// IndexExists reports whether index exists.
	IndexExists(ctx context.Context, index string) (bool, error)
	// DeleteIndex removes index. Deleting a missing index is not an error.
	DeleteIndex(ctx context.Context, index string) error
	// CreateIndex creates index with the standard mapping.
	CreateIndex(ctx context.Context, index string) error
	// Upsert creates or replaces the document with the given id.
	Upsert(ctx context.Context, index, id string, doc Document) error
	// DocumentExists reports whether a document with the given id exists.
	DocumentExists(ctx context.Context, index, id string) (bool, error)
	// Search returns the best hits for q, highest score first.
	Search(ctx context.Context, index string, q Query) ([]Hit, error)
}

// Mapping returns the index body used by CreateIndex: hash tokens as
// keywords and the description as English-analyzed text.
func Mapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				HashField: map[string]any{
					"type": "keyword",
				},
				DescriptionField: map[string]any{
					"type":     "text",
					"analyzer": "english",
				},
			},
		},
	}
}

// NormalizeName derives a valid index name from a model name.
//
// The name is lowercased, a 'T' between two digits and every ':' become '-',
// characters not allowed in index names become '-', and leading '-', '_' and
// '+' are trimmed. "lsh-2024-03-01T12:30:00" becomes "lsh-2024-03-01-12-30-00".
func NormalizeName(model string) string {
	src := []rune(model)
	out := make([]rune, 0, len(src))

	for i, r := range src {
		switch {
		case r == 'T' && i > 0 && i+1 < len(src) && isDigit(src[i-1]) && isDigit(src[i+1]):
			out = append(out, '-')
		case r == ':' || strings.ContainsRune(illegalIndexChars, r):
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}

	name := strings.ToLower(string(out))
	return strings.TrimLeft(name, "-_+")
}

const illegalIndexChars = "\\/*?\"<>| ,#\t\n"

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
