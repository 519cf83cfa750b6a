// Package appfs embeds the files the binaries ship with: database migrations,
// email templates and the default course taxonomy.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* taxonomy/*.yaml
var FS embed.FS
