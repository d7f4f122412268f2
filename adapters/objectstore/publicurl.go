package objectstore

import (
	"net/url"
	"strings"
)

// BuildPublicURL joins base, bucket and an object path, escaping each path
// segment on its own so that "/" separators survive.
func BuildPublicURL(base, bucket, objectPath string) string {
	segments := strings.Split(strings.TrimPrefix(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	out := strings.TrimRight(base, "/")
	if bucket != "" {
		out += "/" + url.PathEscape(bucket)
	}
	return out + "/" + strings.Join(segments, "/")
}

func cleanPath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}

func validPath(p string) bool {
	return p != "" && !strings.Contains(p, "..")
}
