package common

import (
	"log"
	"strconv"
	"strings"
	"unsafe"

	"github.com/valyala/fasthttp"
)

// B2s converts a byte slice to string without memory allocation
// This is a zero-copy conversion using unsafe pointer manipulation
// WARNING: The returned string shares the same underlying memory as the byte slice
// Do not modify the original byte slice after this conversion
func B2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Static byte slices for commonly used header values
// These are reused across all handlers to avoid allocations
var (
	// Connection headers
	strConnection = []byte("Connection")
	strClose      = []byte("close")
	strKeepAlive  = []byte("keep-alive")

	// Content-Type values
	ContentTypeApplicationJSON = []byte("application/json")
	ContentTypeTextPlain       = []byte("text/plain; charset=utf-8")
)

// SetConnectionHeader sets Connection header based on draining state
func SetConnectionHeader(ctx *fasthttp.RequestCtx) {
	if Draining.Load() {
		ctx.Response.Header.SetBytesKV(strConnection, strClose)
	} else {
		ctx.Response.Header.SetBytesKV(strConnection, strKeepAlive)
	}
}

// SendJSONResponse sends a JSON response with standard headers and 200 OK status
func SendJSONResponse(ctx *fasthttp.RequestCtx, jsonData []byte) {
	SendResponse(ctx, fasthttp.StatusOK, ContentTypeApplicationJSON, jsonData)
}

// SendTextResponse sends an unstructured plain-text body, used for error messages
func SendTextResponse(ctx *fasthttp.RequestCtx, statusCode int, msg string) {
	SendResponse(ctx, statusCode, ContentTypeTextPlain, []byte(msg))
}

// SendResponse centralizes the common response pattern used by all handlers
func SendResponse(ctx *fasthttp.RequestCtx, statusCode int, contentType, body []byte) {
	ctx.Response.Header.SetContentTypeBytes(contentType)
	ctx.Response.Header.SetContentLength(len(body))
	SetConnectionHeader(ctx)
	ctx.SetStatusCode(statusCode)
	ctx.SetBody(body)

	if !Quiet {
		log.Printf("[HTTP] %d %s", statusCode, FormatRequestLog(ctx))
	}
}

// FormatRequestLog formats request details for logging (excludes body content)
func FormatRequestLog(ctx *fasthttp.RequestCtx) string {
	req := &ctx.Request

	var sb strings.Builder
	sb.Grow(256)

	sb.WriteString("method=")
	sb.WriteString(B2s(req.Header.Method()))
	sb.WriteString(" uri=")
	sb.WriteString(B2s(req.URI().FullURI()))
	sb.WriteString(" body_size=")
	sb.WriteString(strconv.Itoa(len(req.Body())))
	sb.WriteString(" src=")
	sb.WriteString(ctx.RemoteAddr().String())

	return sb.String()
}
