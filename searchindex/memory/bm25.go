package memory

import (
	"math"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	k1 = 1.2
	b  = 0.75
)

// textIndex is an in-memory BM25 index over description text.
// Callers hold the owning index's lock.
type textIndex struct {
	postings    map[string]*roaring.Bitmap
	termFreq    map[string]map[uint32]int
	docLengths  map[uint32]int
	totalLength int64
}

func newTextIndex() *textIndex {
	return &textIndex{
		postings:   make(map[string]*roaring.Bitmap),
		termFreq:   make(map[string]map[uint32]int),
		docLengths: make(map[uint32]int),
	}
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (t *textIndex) add(doc uint32, text string) {
	tokens := tokenize(text)
	t.docLengths[doc] = len(tokens)
	t.totalLength += int64(len(tokens))

	for _, tok := range tokens {
		bm, ok := t.postings[tok]
		if !ok {
			bm = roaring.New()
			t.postings[tok] = bm
			t.termFreq[tok] = make(map[uint32]int)
		}
		bm.Add(doc)
		t.termFreq[tok][doc]++
	}
}

func (t *textIndex) remove(doc uint32, text string) {
	length, ok := t.docLengths[doc]
	if !ok {
		return
	}
	for _, tok := range tokenize(text) {
		if bm, ok := t.postings[tok]; ok {
			bm.Remove(doc)
			delete(t.termFreq[tok], doc)
			if bm.IsEmpty() {
				delete(t.postings, tok)
				delete(t.termFreq, tok)
			}
		}
	}
	delete(t.docLengths, doc)
	t.totalLength -= int64(length)
}

// score adds the BM25 score of every document matching text to scores.
func (t *textIndex) score(text string, scores map[uint32]float64) {
	docCount := len(t.docLengths)
	if docCount == 0 {
		return
	}
	avgDL := float64(t.totalLength) / float64(docCount)

	for _, tok := range tokenize(text) {
		bm, ok := t.postings[tok]
		if !ok {
			continue
		}

		idf := computeIDF(docCount, int(bm.GetCardinality()))
		it := bm.Iterator()
		for it.HasNext() {
			doc := it.Next()
			tf := float64(t.termFreq[tok][doc])
			docLen := float64(t.docLengths[doc])

			// BM25 formula
			num := tf * (k1 + 1)
			denom := tf + k1*(1-b+b*(docLen/avgDL))
			scores[doc] += idf * (num / denom)
		}
	}
}

func computeIDF(docCount, df int) float64 {
	// IDF = log(1 + (N - n + 0.5) / (n + 0.5))
	N := float64(docCount)
	n := float64(df)
	return math.Log(1 + (N-n+0.5)/(n+0.5))
}
