package echo

import (
	"context"
	"errors"
	"log"

	"jsonecho_server/common"
	"jsonecho_server/metrics"

	"github.com/valyala/fasthttp"
)

// Result is the HTTP rendition of one echo call.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType []byte
	Outcome     string
}

// Description returns the endpoint description for startup logging
func Description() string {
	return "  - /api/echo   -> JSON echo (GET ?data={json}, or POST with a JSON body)"
}

// Handle runs Echo and maps its outcome onto a status code and body.
// Client errors come back as 400 with the error text as the whole body.
func Handle(ctx context.Context, raw []byte, delayParam string) Result {
	out, err := Echo(ctx, raw, delayParam)
	if err == nil {
		return Result{
			Body:        out,
			StatusCode:  fasthttp.StatusOK,
			ContentType: common.ContentTypeApplicationJSON,
			Outcome:     Outcome(nil),
		}
	}

	res := Result{ContentType: common.ContentTypeTextPlain, Outcome: Outcome(err)}
	switch {
	case IsClientError(err):
		res.StatusCode = fasthttp.StatusBadRequest
		res.Body = []byte(err.Error())
	case errors.Is(err, ErrCancelled):
		res.StatusCode = fasthttp.StatusServiceUnavailable
		res.Body = []byte(ErrCancelled.Error())
	default:
		log.Printf("[HTTP] echo failed: %v", err)
		res.StatusCode = fasthttp.StatusInternalServerError
		res.Body = []byte("internal error")
	}
	return res
}

// GetHandler echoes the "data" query parameter.
//
// Request:  GET /api/echo?data={"data":1.0}&delay=1
// Response: {"data":1.0}
func GetHandler(ctx *fasthttp.RequestCtx) {
	serve(ctx, ctx.QueryArgs().Peek("data"))
}

// PostHandler echoes the raw request body. The delay is still read from the
// query string.
//
// Request:  POST /api/echo?delay=1 with body {"data":1.0}
// Response: {"data":1.0}
func PostHandler(ctx *fasthttp.RequestCtx) {
	serve(ctx, ctx.PostBody())
}

func serve(ctx *fasthttp.RequestCtx, raw []byte) {
	delayParam := string(ctx.QueryArgs().Peek("delay"))

	res := Handle(ctx, raw, delayParam)
	metrics.ObserveEcho("http", res.Outcome)

	common.SendResponse(ctx, res.StatusCode, res.ContentType, res.Body)
}
