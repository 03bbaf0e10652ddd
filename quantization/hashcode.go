package quantization

import (
	"fmt"
	"strconv"
	"strings"
)

// HashCode is the ordered list of group tokens produced by Predict.
// Token i always has the form "{i}-{cluster}".
type HashCode []string

// FormatToken encodes a (group, cluster) pair.
func FormatToken(group, cluster int) string {
	return strconv.Itoa(group) + "-" + strconv.Itoa(cluster)
}

// ParseToken decodes a token produced by FormatToken.
func ParseToken(tok string) (group, cluster int, err error) {
	g, c, ok := strings.Cut(tok, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid hash token %q", tok)
	}
	group, err = strconv.Atoi(g)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("invalid group in hash token %q", tok)
	}
	cluster, err = strconv.Atoi(c)
	if err != nil || cluster < 0 {
		return 0, 0, fmt.Errorf("invalid cluster in hash token %q", tok)
	}
	return group, cluster, nil
}

// Encode builds a HashCode from per-group cluster ids.
func Encode(clusters []int) HashCode {
	h := make(HashCode, len(clusters))
	for i, c := range clusters {
		h[i] = FormatToken(i, c)
	}
	return h
}

// Clusters decodes the per-group cluster ids.
func (h HashCode) Clusters() ([]int, error) {
	out := make([]int, len(h))
	for i, tok := range h {
		g, c, err := ParseToken(tok)
		if err != nil {
			return nil, err
		}
		if g != i {
			return nil, fmt.Errorf("hash token %q at position %d", tok, i)
		}
		out[i] = c
	}
	return out, nil
}

// Tokens returns the tokens as a plain string slice.
func (h HashCode) Tokens() []string {
	return []string(h)
}

// Equal reports whether both codes hold the same tokens in the same order.
func (h HashCode) Equal(other HashCode) bool {
	if len(h) != len(other) {
		return false
	}
	for i := range h {
		if h[i] != other[i] {
			return false
		}
	}
	return true
}

// Collisions counts the groups in which both codes agree.
func (h HashCode) Collisions(other HashCode) int {
	n := min(len(h), len(other))
	count := 0
	for i := 0; i < n; i++ {
		if h[i] == other[i] {
			count++
		}
	}
	return count
}

func (h HashCode) String() string {
	return strings.Join(h, " ")
}
