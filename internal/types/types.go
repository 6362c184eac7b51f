// Package types holds the application-wide constants.
package types

const (
	Application = "dirgen"
	Description = "Directive Table Generator extracts nginx module directive tables and generates Go match functions for them"
	WebSite     = "https://github.com/origadmin/dirgen"
	UI          = `
     _ _
  __| (_)_ __ __ _  ___ _ __
 / _` + "`" + ` | | '__/ _` + "`" + ` |/ _ \ '_ \
| (_| | | | | (_| |  __/ | | |
 \__,_|_|_|  \__, |\___|_| |_|
             |___/
`
)

const (
	// ConfigName is the base name of the configuration file looked up in the working directory.
	ConfigName = ".dirgen"
	// EnvPrefix prefixes every environment variable read as configuration, e.g. DIRGEN_WORKERS.
	EnvPrefix = "DIRGEN"
)

// Output formats of the extract command.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)
