package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// HashString is the hex SHA-1 of s.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// OutputName derives a file name stem for the output of a remote table:
// the last path segment without extension, plus the cleaned query when
// present. URLs with neither fall back to a hash.
func OutputName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return HashString(rawURL)
	}
	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "." || base == "/" {
		base = ""
	}
	parts := make([]string, 0, 2)
	if s := strings.Trim(filenameCleaner.ReplaceAllString(base, "_"), "_"); s != "" {
		parts = append(parts, s)
	}
	if s := strings.Trim(filenameCleaner.ReplaceAllString(u.RawQuery, "_"), "_"); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return HashString(rawURL)
	}
	return strings.Join(parts, "_")
}
