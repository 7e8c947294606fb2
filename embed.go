package folio

import "embed"

// EmbeddedAssets holds the front-end assets served under /public:
// main.js and site.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
