// Package static serves the configured web root for every non-API path.
package static

import (
	"log"
	"os"

	"jsonecho_server/common"

	"github.com/valyala/fasthttp"
)

var strNotFound = "Not Found\n"

// Description returns the endpoint description for startup logging
func Description(root string) string {
	return "  - /*          -> Static files from " + root
}

// NewHandler returns a handler serving files below root.
// A missing root is logged but not fatal: every request then gets 404.
func NewHandler(root string) fasthttp.RequestHandler {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		log.Printf("[STATIC] web root %q is not a readable directory, static requests will 404", root)
	}

	fs := &fasthttp.FS{
		Root:               root,
		IndexNames:         []string{"index.html"},
		GenerateIndexPages: false,
		AcceptByteRange:    true,
		Compress:           false,
		PathNotFound: func(ctx *fasthttp.RequestCtx) {
			common.SendTextResponse(ctx, fasthttp.StatusNotFound, strNotFound)
		},
	}
	return fs.NewRequestHandler()
}
