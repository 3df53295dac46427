package websocket

import (
	"log"
	"time"

	"jsonecho_server/common"
	"jsonecho_server/delay"
	"jsonecho_server/echo"
	"jsonecho_server/metrics"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		// Allow all origins
		return true
	},
}

// Description returns the endpoint description for startup logging
func Description() string {
	return "  - /api/echo/ws -> WebSocket JSON echo (one JSON value per message, ?delay applies to each)"
}

// Handler upgrades the connection and echoes every message through
// echo.Normalize. The connection's delay parameter is validated before the
// upgrade so a bad value still gets a plain 400.
func Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		common.SendTextResponse(ctx, fasthttp.StatusMethodNotAllowed, "Only GET requests are allowed for WebSocket\n")
		return
	}

	d, err := delay.Parse(string(ctx.QueryArgs().Peek("delay")))
	if err != nil {
		common.SendTextResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	err = upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		handleConnection(conn, d)
	})
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("Not a websocket handshake\n")
	}
}

// handleConnection manages a single WebSocket connection
func handleConnection(conn *websocket.Conn, d time.Duration) {
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	logConnection("connected", remoteAddr)

	for {
		if shouldClose(conn, remoteAddr) {
			break
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			handleReadError(err)
			break
		}

		logMessage("recv", len(message), remoteAddr)

		if err := conn.WriteMessage(websocket.TextMessage, reply(message, d)); err != nil {
			log.Printf("[WS] write error: %v", err)
			break
		}
	}

	logConnection("disconnected", remoteAddr)
}

// reply builds the frame sent back for one inbound message.
// It runs on the connection's own goroutine; the request context is gone
// after the upgrade, so the delay is a plain sleep.
func reply(message []byte, d time.Duration) []byte {
	out, err := echo.Normalize(message)
	metrics.ObserveEcho("ws", echo.Outcome(err))
	if err != nil {
		return []byte("error: " + err.Error())
	}

	if d > 0 {
		time.Sleep(d)
		metrics.ObserveDelay(d)
	}
	return out
}

// shouldClose checks if connection should be closed (draining mode)
func shouldClose(conn *websocket.Conn, remoteAddr string) bool {
	if !common.Draining.Load() {
		return false
	}

	logConnection("draining", remoteAddr)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		log.Printf("[WS] close error: %v", err)
	}
	return true
}

// handleReadError logs unexpected read errors
func handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		log.Printf("[WS] read error: %v", err)
	}
}

// logConnection logs connection events if not in quiet mode
func logConnection(event, remoteAddr string) {
	if !common.Quiet {
		log.Printf("[WS] %s %s", event, remoteAddr)
	}
}

// logMessage logs message events if not in quiet mode
func logMessage(direction string, size int, remoteAddr string) {
	if !common.Quiet {
		log.Printf("[WS] %s %d bytes %s", direction, size, remoteAddr)
	}
}
