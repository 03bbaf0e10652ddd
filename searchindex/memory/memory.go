// Package memory provides an in-process searchindex.Index.
//
// Hash tokens are kept in roaring bitmap postings and descriptions are
// scored with BM25. It backs tests and single-machine runs that do not need
// an Elasticsearch cluster.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/pqhash/searchindex"
)

// Index implements searchindex.Index in memory.
type Index struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

var _ searchindex.Index = (*Index)(nil)

// New creates an empty Index.
func New() *Index {
	return &Index{indexes: make(map[string]*index)}
}

type index struct {
	ids    map[string]uint32
	docs   []entry
	hashes map[string]*roaring.Bitmap
	text   *textIndex
}

type entry struct {
	id  string
	doc searchindex.Document
}

func newIndex() *index {
	return &index{
		ids:    make(map[string]uint32),
		hashes: make(map[string]*roaring.Bitmap),
		text:   newTextIndex(),
	}
}

func (i *Index) IndexExists(_ context.Context, name string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.indexes[name]
	return ok, nil
}

func (i *Index) DeleteIndex(_ context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.indexes, name)
	return nil
}

func (i *Index) CreateIndex(_ context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.indexes[name]; ok {
		return fmt.Errorf("%w: %s", searchindex.ErrIndexExists, name)
	}
	i.indexes[name] = newIndex()
	return nil
}

func (i *Index) Upsert(_ context.Context, name, id string, doc searchindex.Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	idx, ok := i.indexes[name]
	if !ok {
		return fmt.Errorf("%w: %s", searchindex.ErrIndexNotFound, name)
	}

	doc.Hash = slices.Clone(doc.Hash)

	internal, exists := idx.ids[id]
	if exists {
		idx.unindex(internal)
		idx.docs[internal] = entry{id: id, doc: doc}
	} else {
		internal = uint32(len(idx.docs))
		idx.ids[id] = internal
		idx.docs = append(idx.docs, entry{id: id, doc: doc})
	}

	for _, tok := range doc.Hash {
		bm, ok := idx.hashes[tok]
		if !ok {
			bm = roaring.New()
			idx.hashes[tok] = bm
		}
		bm.Add(internal)
	}
	idx.text.add(internal, doc.Description)
	return nil
}

func (idx *index) unindex(internal uint32) {
	old := idx.docs[internal]
	for _, tok := range old.doc.Hash {
		if bm, ok := idx.hashes[tok]; ok {
			bm.Remove(internal)
			if bm.IsEmpty() {
				delete(idx.hashes, tok)
			}
		}
	}
	idx.text.remove(internal, old.doc.Description)
}

func (i *Index) DocumentExists(_ context.Context, name, id string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	idx, ok := i.indexes[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", searchindex.ErrIndexNotFound, name)
	}
	_, ok = idx.ids[id]
	return ok, nil
}

// Get returns a stored document.
func (i *Index) Get(_ context.Context, name, id string) (searchindex.Document, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	idx, ok := i.indexes[name]
	if !ok {
		return searchindex.Document{}, false
	}
	internal, ok := idx.ids[id]
	if !ok {
		return searchindex.Document{}, false
	}
	return idx.docs[internal].doc, true
}

// Count returns the number of documents in an index.
func (i *Index) Count(_ context.Context, name string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	idx, ok := i.indexes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", searchindex.ErrIndexNotFound, name)
	}
	return len(idx.ids), nil
}

// Search scores every document by hash collisions plus BM25 text relevance.
// Documents scoring zero are not returned. Ties are broken by id.
func (i *Index) Search(ctx context.Context, name string, q searchindex.Query) ([]searchindex.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	idx, ok := i.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", searchindex.ErrIndexNotFound, name)
	}

	scores := make(map[uint32]float64)
	for _, tok := range q.Hash {
		bm, ok := idx.hashes[tok]
		if !ok {
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			scores[it.Next()]++
		}
	}
	if q.Text != "" {
		idx.text.score(q.Text, scores)
	}

	hits := make([]searchindex.Hit, 0, len(scores))
	for internal, score := range scores {
		if score <= 0 {
			continue
		}
		e := idx.docs[internal]
		hits = append(hits, searchindex.Hit{
			ID:    e.id,
			Score: score,
			Document: searchindex.Document{
				Hash:        slices.Clone(e.doc.Hash),
				Description: e.doc.Description,
			},
		})
	}

	slices.SortFunc(hits, func(a, b searchindex.Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	size := q.Size
	if size <= 0 {
		size = searchindex.DefaultSize
	}
	if len(hits) > size {
		hits = hits[:size]
	}
	return hits, nil
}
