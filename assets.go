// Package campi provides embedded assets for production builds.
package campi

import "embed"

// In dev mode (DEV=true), pages and assets are loaded from disk for hot reloading.
// Otherwise they are served from these embedded filesystems.

//go:embed all:web/static
var StaticFS embed.FS

//go:embed all:web/templates
var TemplateFS embed.FS
