// Package assets embeds the built web control surface.
// Run cmd/minify to rebuild index.html from the template and sources.
package assets

import _ "embed"

//go:embed index.html
var Index []byte
