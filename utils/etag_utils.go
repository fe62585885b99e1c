package utils

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// EtagOf derives a weak etag from file content.
func EtagOf(data []byte) string {
	return fmt.Sprintf(`W/"%x"`, xxhash.Sum64(data))
}
