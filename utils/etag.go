package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag builds a weak validator from a document id, its last
// modification time and any other inputs the representation depends on.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time, variant ...string) string {
	h := sha1.New()
	h.Write(id[:])
	h.Write([]byte(strconv.FormatInt(updatedAt.UnixNano(), 10)))
	for _, v := range variant {
		h.Write([]byte{0})
		h.Write([]byte(v))
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil))[:16] + `"`
}
