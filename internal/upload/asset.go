package upload

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Asset is a single uploaded file held entirely in memory for one request.
type Asset struct {
	Field    string
	FileName string
	MimeType string
	Size     int64
	Bytes    []byte
	Digest   string
}

// NewAsset wraps raw bytes and computes their digest.
func NewAsset(field, fileName, mimeType string, data []byte) *Asset {
	sum := blake3.Sum256(data)
	return &Asset{
		Field:    field,
		FileName: fileName,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Bytes:    data,
		Digest:   hex.EncodeToString(sum[:]),
	}
}

// Base64 returns the standard base64 encoding of the content.
func (a *Asset) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Bytes)
}

// DataURI renders the asset as a data: URI accepted by object stores.
func (a *Asset) DataURI() string {
	return "data:" + a.MimeType + ";base64," + a.Base64()
}

// ShortDigest returns the first n hex characters of the digest.
func (a *Asset) ShortDigest(n int) string {
	if n <= 0 || n >= len(a.Digest) {
		return a.Digest
	}
	return a.Digest[:n]
}
