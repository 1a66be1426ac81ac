package api

import (
	"html/template"
	"net/http"
)

// The operator-facing pages. Deliberately small: this surface exists for
// one-time setup and the occasional token copy, not day-to-day use.
var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html>
<head>
<title>Ring Unlock Server</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: -apple-system, sans-serif; max-width: 560px; margin: 0 auto; padding: 20px; background: #16213e; color: #fff; }
.card { background: rgba(255,255,255,0.08); border-radius: 12px; padding: 24px; margin-bottom: 20px; }
.ok { color: #00c853; } .warn { color: #ff9800; } .err { color: #ff5252; }
input { width: 100%; padding: 10px; margin: 6px 0 14px; border-radius: 6px; border: 1px solid #444; background: #0d142d; color: #fff; box-sizing: border-box; }
button { padding: 12px 24px; border: none; border-radius: 6px; background: #00c853; font-weight: 600; cursor: pointer; }
a { color: #64b5f6; }
code, .token { font-family: monospace; word-break: break-all; background: rgba(0,0,0,0.4); padding: 8px; border-radius: 6px; display: block; }
</style>
</head>
<body><div class="card">{{end}}
{{define "foot"}}</div></body></html>{{end}}

{{define "home"}}{{template "head"}}
<h1>Ring Unlock Server</h1>
{{if .Authenticated}}<p class="ok">Authenticated</p>{{else}}<p class="warn">Not authenticated</p><p><a href="/setup">Complete setup</a></p>{{end}}
<h2>Endpoints</h2>
<p><code>POST /unlock</code> with header <code>X-API-Key</code></p>
<p><code>GET /health</code></p>
{{template "foot"}}{{end}}

{{define "setup"}}{{template "head"}}
<h1>Ring Authentication</h1>
{{if .Authenticated}}<p class="ok">Already authenticated. <a href="/">Back</a></p>{{else}}
<p>Enter your Ring credentials. This is a one-time setup.</p>
<form action="/setup/authenticate" method="POST">
<label>Ring Email</label><input type="email" name="username" value="{{.Username}}" required>
<label>Ring Password</label><input type="password" name="password" required>
<button type="submit">Connect to Ring</button>
</form>{{end}}
{{template "foot"}}{{end}}

{{define "twofactor"}}{{template "head"}}
<h1>Enter 2FA Code</h1>
<p>{{.Notice}}</p>
<form action="/setup/verify-2fa" method="POST">
<input type="hidden" name="attempt_id" value="{{.AttemptID}}">
<label>Verification Code</label><input type="text" name="code" maxlength="6" pattern="[0-9]{6}" required autofocus>
<button type="submit">Verify</button>
</form>
{{template "foot"}}{{end}}

{{define "complete"}}{{template "head"}}
<h1>All Set!</h1>
<p class="ok">Your Ring account is connected.</p>
{{if .Encoded}}<p class="warn">If this deployment has no persistent disk, set this as the <code>RING_TOKEN</code> environment variable so logins survive restarts:</p>
<div class="token">{{.Encoded}}</div>{{end}}
<p><a href="/">Back to home</a></p>
{{template "foot"}}{{end}}

{{define "failed"}}{{template "head"}}
<h1>Authentication Failed</h1>
<p class="err">{{.Error}}</p>
<p><a href="/setup">Try again</a></p>
{{template "foot"}}{{end}}

{{define "token"}}{{template "head"}}
<h1>Your Ring Token</h1>
<p>Copy this value into the <code>RING_TOKEN</code> environment variable.</p>
<div class="token">{{.Encoded}}</div>
<p><a href="/">Back to home</a></p>
{{template "foot"}}{{end}}

{{define "notoken"}}{{template "head"}}
<h1>No Token Found</h1>
<p>No authentication token is stored. <a href="/setup">Go to setup</a>.</p>
{{template "foot"}}{{end}}
`))

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page", "page", name, "error", err)
	}
}
