package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// check value of the Castagnoli polynomial
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestVerify(t *testing.T) {
	data := []byte("123456789")

	assert.NoError(t, Verify(data, 0xE3069283))

	err := Verify(data, 0xDEADBEEF)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Contains(t, err.Error(), "e3069283")
}

func TestCRC32CBase64(t *testing.T) {
	assert.Equal(t, "4waSgw==", CRC32CBase64([]byte("123456789")))
}
