package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ScriptExt is the extension of documents the server analyzes.
const ScriptExt = ".pbl"

func IsScript(uri string) bool {
	return strings.HasSuffix(strings.ToLower(uri), ScriptExt)
}

// UriToPath returns the file path of a file:// URI, or "" for any other
// scheme.
func UriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return filepath.FromSlash(u.Path)
}
