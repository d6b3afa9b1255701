// Package web holds the embedded templates and static assets.
package web

import "embed"

// Templates embeds the page, partial and layout templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds the stylesheet and script served under /static/.
//
//go:embed static/**/*
var Static embed.FS
