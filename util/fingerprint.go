package util

import (
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Fingerprint hashes a page-structure outline (one entry per landmark element,
// e.g. "main>form#composer"). Order matters; blank entries are ignored.
func Fingerprint(outline []string) string {
	var parts []string
	for _, o := range outline {
		o = strings.TrimSpace(o)
		if o != "" {
			parts = append(parts, o)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	h := murmur3.New64()
	h.Write([]byte(strings.Join(parts, "\n")))
	return strconv.FormatUint(h.Sum64(), 16)
}
