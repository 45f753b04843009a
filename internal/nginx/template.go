// Package nginx renders nginx configuration files from placeholder templates.
package nginx

import "strings"

// Placeholder tokens recognised in configuration templates. Substitution is
// literal: tokens absent from the template are simply not replaced, and
// unknown bracketed tokens pass through untouched.
const (
	TokenUser        = "[user]"
	TokenErrorLog    = "[errorlog]"
	TokenAccessLog   = "[accesslog]"
	TokenListenPort  = "[listenPort]"
	TokenRedirectURI = "[redirectUri]"
	TokenPidFile     = "[pidFile]"
)

// Params carries the six substitution values for a config template.
type Params struct {
	User        string
	ErrorLog    string
	AccessLog   string
	ListenPort  string
	RedirectURI string
	PidFile     string
}

// Render substitutes the placeholder tokens into the template. No escaping
// and no validation of the resulting nginx syntax; the template author owns
// correctness.
func Render(template string, p Params) string {
	r := strings.NewReplacer(
		TokenUser, p.User,
		TokenErrorLog, p.ErrorLog,
		TokenAccessLog, p.AccessLog,
		TokenListenPort, p.ListenPort,
		TokenRedirectURI, p.RedirectURI,
		TokenPidFile, p.PidFile,
	)
	return r.Replace(template)
}

// DefaultTemplate is a minimal reverse-proxy configuration suitable for
// fronting a single test backend.
const DefaultTemplate = `user [user];
worker_processes 1;
pid [pidFile];

events {
    worker_connections 1024;
}

http {
    error_log [errorlog];
    access_log [accesslog];

    server {
        listen [listenPort];

        location / {
            proxy_pass [redirectUri];
            proxy_http_version 1.1;
            proxy_set_header Host $host;
            proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
            proxy_set_header X-Forwarded-Proto $scheme;
        }
    }
}
`
