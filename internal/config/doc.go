// Package config loads sockctl's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/sockhttp/config.toml
//  3. If the file doesn't exist, return Default()
//  4. If the file exists but fields are missing or empty, keep the defaults
//
// # TOML Format
//
//	socket_path = "/run/sockhttp/api.sock"
//	codec = "json"            # json, cbor, proto, or empty for raw bytes
//	user_agent = "sockctl"
//	poll_interval = "2s"
//
//	[log]
//	level = "info"            # debug, info, warn, error
//	format = "console"        # console or json
//	file = "~/.local/state/sockhttp/sockctl.log"
//	rotate = true
//	max_size_mb = 10
//	max_backups = 3
//	max_age_days = 7
//	compress = false
//
// Every field is optional. Tilde expansion is applied to socket_path and
// log.file. An unknown codec or a non-positive poll_interval is an error.
//
// Missing config files are NOT an error. The socket path is the only value
// the client library itself needs; everything else shapes sockctl.
package config
