package media

import (
	"encoding/hex"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/blake2b"
)

// ObjectKey names an object by its content: a UUIDv5 over the blake2b digest
// of data, followed by ext.
func ObjectKey(ns uuid.UUID, data []byte, ext string) string {
	sum := blake2b.Sum256(data)
	return uuid.NewV5(ns, hex.EncodeToString(sum[:])).String() + ext
}

// extensionFor picks the key suffix from the sniffed type, never from the
// client supplied file name.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/x-icon":
		return ".ico"
	default:
		return ""
	}
}
