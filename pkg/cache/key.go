package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key identifies one cached CMDB API response. Two calls to the same API
// with byte-identical request bodies share a cache entry.
type Key struct {
	// API is the CMDB method name (e.g. "list_biz_hosts").
	API string

	// Body is the marshaled request body, including page parameters.
	Body []byte
}

// String generates a deterministic cache key string.
// Format: cmdb:api:sha256-prefix-of-body
//
// Example:
//
//	cmdb:list_biz_hosts:9f86d081884c7d65
func (k Key) String() string {
	sum := sha256.Sum256(k.Body)
	return fmt.Sprintf("cmdb:%s:%s", k.API, hex.EncodeToString(sum[:8]))
}
