// Package appfs embeds the files shipped with every binary: migrations, email templates and seeds.
package appfs

import "embed"

// Email templates live under "templates/email", SQL migrations under "migrations".
//go:embed migrations/*.sql templates/email/* assets/* seeds/*.yaml
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	CommonPasswords   = "assets/common-passwords.txt"
	StatesSeed        = "seeds/states.yaml"
)
