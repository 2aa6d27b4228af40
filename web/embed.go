// Package web bundles the dashboard templates and browser assets.
package web

import "embed"

// Templates embeds the layouts, partials and pages rendered by view.Engine.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds the dashboard stylesheet and stream client.
//
//go:embed static/**/*
var Static embed.FS
