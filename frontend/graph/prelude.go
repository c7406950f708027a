package graph

import (
	"embed"
	"io/fs"
)

//go:embed prelude
var preludeEmbed embed.FS

// embeddedPrelude holds the packages of DefaultSettings, rooted so that
// their paths are their package paths
func embeddedPrelude() fs.FS {
	sub, err := fs.Sub(preludeEmbed, "prelude")
	if err != nil {
		panic(err.Error())
	}
	return sub
}
