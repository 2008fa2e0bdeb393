// Package web embeds the HTML templates and static assets into the binary,
// so the server runs from any working directory with nothing beside it.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// Templates returns the template tree rooted at web/templates:
// layout.html plus pages/*.html.
func Templates() fs.FS {
	return mustSub(templates, "templates")
}

// Static returns the asset tree served under /static/.
func Static() fs.FS {
	return mustSub(static, "static")
}

// mustSub can only fail if dir is not a valid path, which for these
// constants would be caught the first time any test runs.
func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
