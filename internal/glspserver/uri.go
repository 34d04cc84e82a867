package glspserver

import (
	"net/url"
	"strings"
)

// rootPath converts a file:// root URI into a filesystem path. It returns
// "" for an empty rootURI and any other non-file URI unchanged.
func rootPath(rootURI string) string {
	if rootURI == "" {
		return ""
	}
	return uriToPath(rootURI)
}

// uriToPath strips a file:// scheme off uri, unescaping percent-encoded
// path segments the way a URI-aware client produces them.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}
