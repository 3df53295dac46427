package router

import (
	"log"
	"sort"
	"strings"

	"jsonecho_server/common"
	"jsonecho_server/delay"
	"jsonecho_server/echo"
	"jsonecho_server/grpc"
	"jsonecho_server/metrics"
	"jsonecho_server/static"
	"jsonecho_server/websocket"

	"github.com/valyala/fasthttp"
)

// Route paths
const (
	PathEcho    = "/api/echo"
	PathEchoWS  = "/api/echo/ws"
	PathHealth  = "/health"
	PathHelp    = "/help"
	PathMetrics = "/metrics"
)

// Config controls which routes are registered
type Config struct {
	WebRoot       string
	EnableMetrics bool
	EnableGRPC    bool
}

// Router dispatches on an exact method and path table built once in New.
// Paths missing from the table fall through to the static file handler.
type Router struct {
	routes       map[string]map[string]fasthttp.RequestHandler // path -> method -> handler
	allow        map[string]string                             // path -> Allow header value
	static       fasthttp.RequestHandler
	helpResponse []byte
}

// New builds the route table for cfg
func New(cfg Config) *Router {
	r := &Router{
		routes: make(map[string]map[string]fasthttp.RequestHandler),
		allow:  make(map[string]string),
		static: metrics.Instrument("static", static.NewHandler(cfg.WebRoot)),
	}

	r.handle(fasthttp.MethodGet, PathEcho, "echo", echo.GetHandler)
	r.handle(fasthttp.MethodPost, PathEcho, "echo", echo.PostHandler)
	r.handle(fasthttp.MethodGet, PathEchoWS, "echo_ws", websocket.Handler)
	r.handle(fasthttp.MethodGet, PathHealth, "health", healthHandler)
	r.handle(fasthttp.MethodGet, PathHelp, "help", r.helpHandler)
	if cfg.EnableMetrics {
		r.handle(fasthttp.MethodGet, PathMetrics, "metrics", metrics.Handler)
	}

	r.buildHelpResponse(cfg)
	return r
}

// handle registers h for method and path, instrumented under route
func (r *Router) handle(method, path, route string, h fasthttp.RequestHandler) {
	methods, ok := r.routes[path]
	if !ok {
		methods = make(map[string]fasthttp.RequestHandler)
		r.routes[path] = methods
	}
	methods[method] = metrics.Instrument(route, h)

	allowed := make([]string, 0, len(methods))
	for m := range methods {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	r.allow[path] = strings.Join(allowed, ", ")
}

// buildHelpResponse constructs help text from handler descriptions
func (r *Router) buildHelpResponse(cfg Config) {
	var sb strings.Builder
	sb.WriteString("Available endpoints:\n")
	sb.WriteString(echo.Description() + "\n")
	sb.WriteString(delay.Description() + "\n")
	sb.WriteString(websocket.Description() + "\n")
	sb.WriteString("  - /health     -> Health check (returns {\"status\":\"ok\"})\n")
	sb.WriteString("  - /help       -> This help message\n")
	if cfg.EnableMetrics {
		sb.WriteString(metrics.Description() + "\n")
	}
	if cfg.EnableGRPC {
		sb.WriteString(grpc.Description() + "\n")
	}
	sb.WriteString(static.Description(cfg.WebRoot) + "\n")
	r.helpResponse = []byte(sb.String())
}

// Handler is the main request handler that routes to appropriate sub-handlers
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[HTTP] panic serving %s: %v", ctx.Path(), rec)
			ctx.ResetBody()
			common.SendTextResponse(ctx, fasthttp.StatusInternalServerError, "internal error")
		}
	}()

	methods, ok := r.routes[string(ctx.Path())]
	if !ok {
		r.static(ctx)
		return
	}

	if h, ok := methods[string(ctx.Method())]; ok {
		h(ctx)
		return
	}

	ctx.Response.Header.Set(fasthttp.HeaderAllow, r.allow[string(ctx.Path())])
	common.SendTextResponse(ctx, fasthttp.StatusMethodNotAllowed, "Method Not Allowed\n")
}

func healthHandler(ctx *fasthttp.RequestCtx) {
	common.SendJSONResponse(ctx, common.HealthResponse)
}

func (r *Router) helpHandler(ctx *fasthttp.RequestCtx) {
	common.SendResponse(ctx, fasthttp.StatusOK, common.ContentTypeTextPlain, r.helpResponse)
}

// Help returns the endpoint listing served at /help
func (r *Router) Help() []byte {
	return r.helpResponse
}
