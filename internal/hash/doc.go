// Package hash provides the CRC32-Castagnoli checksum used for model artifact
// and object upload integrity.
//
//	sum := hash.CRC32C(payload)
//	if err := hash.Verify(payload, sum); err != nil { ... }
//
//	input.ChecksumCRC32C = aws.String(hash.CRC32CBase64(data))
package hash
