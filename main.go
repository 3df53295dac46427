package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "jsonecho_server/automaxprocs" // Set GOMAXPROCS to match Linux container CPU quota.
	"jsonecho_server/common"
	"jsonecho_server/grpc"
	"jsonecho_server/router"

	"github.com/alecthomas/kong"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/reuseport"
)

// Config is the command line of the server
type Config struct {
	Port            int           `short:"p" help:"Web server port." default:"8080" placeholder:"NUMBER"`
	Dir             string        `short:"d" help:"Web root directory." default:"webroot" placeholder:"PATH"`
	Host            string        `help:"Listen host." default:"0.0.0.0"`
	GRPCAddr        string        `name:"grpc-addr" help:"Listen address for the gRPC echo service (disabled when empty)." placeholder:"HOST:PORT"`
	Metrics         bool          `help:"Expose Prometheus metrics at /metrics." default:"true" negatable:""`
	Quiet           bool          `help:"Suppress per-request logging." default:"true" negatable:""`
	ReadTimeout     time.Duration `help:"Maximum time to read a full request." default:"90s"`
	WriteTimeout    time.Duration `help:"Maximum time to write a response, including any requested delay." default:"90s"`
	ShutdownTimeout time.Duration `help:"Time allowed for in-flight requests on shutdown." default:"10s"`
}

// Validate is called by kong after parsing
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range 1-65535", c.Port)
	}
	return nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) routerConfig() router.Config {
	return router.Config{
		WebRoot:       c.Dir,
		EnableMetrics: c.Metrics,
		EnableGRPC:    c.GRPCAddr != "",
	}
}

func main() {
	var cfg Config
	kctx := kong.Parse(&cfg,
		kong.Name("jsonecho"),
		kong.Description("Echoes JSON sent to /api/echo and serves a static web root."),
		kong.UsageOnError(),
	)

	common.Quiet = cfg.Quiet

	err := run(cfg)
	kctx.FatalIfErrorf(err)
}

// NewServer creates the fasthttp server for handler
func NewServer(cfg Config, handler fasthttp.RequestHandler) *fasthttp.Server {
	return &fasthttp.Server{
		Name:            "jsonecho",
		TCPKeepalive:    true,
		LogAllErrors:    true,
		CloseOnShutdown: true,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		Handler:         handler,
	}
}

func run(cfg Config) error {
	rt := router.New(cfg.routerConfig())
	server := NewServer(cfg, rt.Handler)

	// Create a new listener on the given address using port reuse
	ln, err := reuseport.Listen("tcp4", cfg.Addr())
	if err != nil {
		return fmt.Errorf("error creating listener: %w", err)
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		grpcServer = grpc.NewServer(cfg.GRPCAddr)
		if err := grpcServer.Start(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("error starting gRPC server: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s\n%s", cfg.Addr(), rt.Help())
		serveErr <- server.Serve(ln)
	}()

	// Wait for a signal to stop the server
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("error serving: %w", err)
	case s := <-sig:
		log.Printf("received %s, draining", s)
	}

	common.Draining.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		if err := grpcServer.Shutdown(ctx); err != nil {
			log.Printf("error stopping gRPC server: %v", err)
		}
	}

	if err := server.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("error stopping server: %w", err)
	}
	log.Printf("server stopped")
	return nil
}
