package nginx

import (
	"strings"
	"testing"
)

func testParams() Params {
	return Params{
		User:        "www-data",
		ErrorLog:    "/tmp/app/error.log",
		AccessLog:   "/tmp/app/access.log",
		ListenPort:  "8080",
		RedirectURI: "http://127.0.0.1:5000",
		PidFile:     "/tmp/app/nginx.abc.pid",
	}
}

func TestRenderSubstitutesAllTokens(t *testing.T) {
	rendered := Render(DefaultTemplate, testParams())

	for _, token := range []string{TokenUser, TokenErrorLog, TokenAccessLog, TokenListenPort, TokenRedirectURI, TokenPidFile} {
		if strings.Contains(rendered, token) {
			t.Fatalf("token %s survived rendering", token)
		}
	}
	for _, want := range []string{"user www-data;", "listen 8080;", "proxy_pass http://127.0.0.1:5000;", "pid /tmp/app/nginx.abc.pid;"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered config missing %q:\n%s", want, rendered)
		}
	}
}

func TestRenderLeavesUnknownTokensUntouched(t *testing.T) {
	template := "listen [listenPort];\ninclude [custom];"
	rendered := Render(template, testParams())

	if !strings.Contains(rendered, "[custom]") {
		t.Fatalf("unknown token was altered: %s", rendered)
	}
	if strings.Contains(rendered, TokenListenPort) {
		t.Fatalf("known token not replaced: %s", rendered)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	p := testParams()
	once := Render(DefaultTemplate, p)
	twice := Render(once, p)

	if once != twice {
		t.Fatalf("rendering already-substituted text changed it")
	}
}

func TestRenderEmptyValues(t *testing.T) {
	rendered := Render("user [user];", Params{})
	if rendered != "user ;" {
		t.Fatalf("expected empty substitution, got %q", rendered)
	}
}
