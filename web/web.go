// Package web embeds the single-page admin UI served for non-API paths.
package web

import _ "embed"

//go:embed index.html
var Index []byte
