package searchindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lsh-2024-03-01T12:30:00", "lsh-2024-03-01-12-30-00"},
		{"LSH-2024-03-01T12:30:00", "lsh-2024-03-01-12-30-00"},
		{"Test", "test"},
		{"products T1", "products-t1"},
		{"_private", "private"},
		{"+-model", "model"},
		{"a/b*c?d", "a-b-c-d"},
		{"already-normal", "already-normal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	for _, in := range []string{"lsh-2024-03-01T12:30:00", "A:B", "x"} {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once))
	}
}

func TestMapping(t *testing.T) {
	props := Mapping()["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "keyword", props[HashField].(map[string]any)["type"])
	assert.Equal(t, "english", props[DescriptionField].(map[string]any)["analyzer"])
}
