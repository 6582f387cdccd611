// Package configs manages tokensmith configuration.
//
// Configuration is stored in TOML format at
// $XDG_CONFIG_HOME/tokensmith/config.toml:
//
//	api_url = "https://app.infisical.com"
//	auth_token = "..."
//	workspace_id = "64f..."
//	timeout_seconds = 30
//	audit_log = "~/.local/share/tokensmith/audit.jsonl"
//
//	[keystore]
//	backend = "file"            # or "keyring"
//	path = "~/.local/share/tokensmith/keys/privkey"
//	service = "tokensmith"
//
//	[export]
//	dir = "."
//	prefix = "tokensmith"
//
// The environment variables TOKENSMITH_API_URL, TOKENSMITH_TOKEN and
// TOKENSMITH_WORKSPACE_ID override the file. The file is written with 0600
// permissions because it carries the backend auth token.
//
// A client id (UUID) is generated on first use and recorded in audit entries
// so issuance events can be traced to an installation.
package configs
