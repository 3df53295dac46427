package router

import (
	"strings"
	"testing"

	"jsonecho_server/common"

	"github.com/alecthomas/assert/v2"
	"github.com/valyala/fasthttp"
)

func serve(r *Router, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	r.Handler(ctx)
	return ctx
}

func TestRoutes(t *testing.T) {
	common.Quiet = true
	r := New(Config{WebRoot: t.TempDir(), EnableMetrics: true})

	tests := []struct {
		name        string
		method      string
		uri         string
		body        string
		status      int
		contentType string
		wantBody    string
	}{
		{"get echo", "GET", `/api/echo?data=%7B%22data%22%3A1.0%7D`, "", 200, "application/json", `{"data":1.0}`},
		{"post echo", "POST", "/api/echo", `{"data":1.0}`, 200, "application/json", `{"data":1.0}`},
		{"get echo missing data", "GET", "/api/echo", "", 400, "text/plain; charset=utf-8", ""},
		{"post echo bad body", "POST", "/api/echo", `22{"data":1.0}`, 400, "text/plain; charset=utf-8", ""},
		{"get echo bad delay", "GET", `/api/echo?data=1&delay=x`, "", 400, "text/plain; charset=utf-8", `Invalid delay "x"`},
		{"post echo too long delay", "POST", "/api/echo?delay=61", `{}`, 400, "text/plain; charset=utf-8", "Too long delay 61"},
		{"health", "GET", "/health", "", 200, "application/json", `{"status":"ok"}`},
		{"echo wrong method", "PUT", "/api/echo", "", 405, "text/plain; charset=utf-8", ""},
		{"missing static file", "GET", "/nope.html", "", 404, "text/plain; charset=utf-8", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := serve(r, tt.method, tt.uri, tt.body)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			assert.Equal(t, tt.contentType, string(ctx.Response.Header.ContentType()))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, string(ctx.Response.Body()))
			}
		})
	}
}

func TestMethodNotAllowedListsMethods(t *testing.T) {
	common.Quiet = true
	r := New(Config{WebRoot: t.TempDir()})

	ctx := serve(r, "DELETE", "/api/echo", "")
	assert.Equal(t, 405, ctx.Response.StatusCode())
	assert.Equal(t, "GET, POST", string(ctx.Response.Header.Peek("Allow")))
}

func TestHelp(t *testing.T) {
	common.Quiet = true
	r := New(Config{WebRoot: "webroot", EnableMetrics: true, EnableGRPC: true})

	ctx := serve(r, "GET", "/help", "")
	assert.Equal(t, 200, ctx.Response.StatusCode())

	body := string(ctx.Response.Body())
	for _, want := range []string{"/api/echo", "/api/echo/ws", "/health", "/metrics", "EchoService", "webroot"} {
		assert.True(t, strings.Contains(body, want), "help should mention %s", want)
	}
}

func TestMetricsRouteToggle(t *testing.T) {
	common.Quiet = true
	dir := t.TempDir()

	ctx := serve(New(Config{WebRoot: dir, EnableMetrics: true}), "GET", "/metrics", "")
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "jsonecho_echo_delay_seconds")

	ctx = serve(New(Config{WebRoot: dir, EnableMetrics: false}), "GET", "/metrics", "")
	assert.Equal(t, 404, ctx.Response.StatusCode())
}
