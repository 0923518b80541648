package api

import (
	"embed"
	"io/fs"
)

// Embedded live-dashboard assets served at /dashboard.
//
//go:embed static/* static/**
var apiStaticFS embed.FS

// dashboardFS exposes a sub-filesystem rooted at static/ so handlers serve
// asset paths without the static/ prefix.
var dashboardFS fs.FS = func() fs.FS {
	sub, err := fs.Sub(apiStaticFS, "static")
	if err != nil {
		return apiStaticFS
	}
	return sub
}()
