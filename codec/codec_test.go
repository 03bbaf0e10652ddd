package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	descriptions := map[string]string{
		"sku-1": "Red running shoe",
		"sku-2": "Blue \"wool\" sock",
	}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		data, err := enc.Marshal(descriptions)
		require.NoError(t, err)

		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var decoded map[string]string
			require.NoError(t, dec.Unmarshal(data, &decoded))
			assert.Equal(t, descriptions, decoded, "%s -> %s", enc.Name(), dec.Name())
		}
	}
}

func TestDecode(t *testing.T) {
	body := `{"hits":{"total":{"value":2}}}`

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		var resp struct {
			Hits struct {
				Total struct {
					Value int `json:"value"`
				} `json:"total"`
			} `json:"hits"`
		}
		require.NoError(t, c.Decode(strings.NewReader(body), &resp), c.Name())
		assert.Equal(t, 2, resp.Hits.Total.Value)
	}

	assert.Error(t, Default.Decode(strings.NewReader("{"), &struct{}{}))
}
