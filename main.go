// Command courtqueue runs the court rotation server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, WebSocket push, /metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "reset" – clears every area once and exits
//
// Configuration comes from the environment (and an optional .env file);
// flags override individual values. ngrok tunneling is available for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/courtqueue/api"
	"github.com/wricardo/courtqueue/game/config"
	"github.com/wricardo/courtqueue/game/service"
	"github.com/wricardo/courtqueue/game/session"
	"github.com/wricardo/courtqueue/logging"
	"github.com/wricardo/courtqueue/scheduler"
	"github.com/wricardo/courtqueue/transport/mcp"
	"github.com/wricardo/courtqueue/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Court Queue Server"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "courtqueue",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Optional .env file loaded before reading the environment"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (PORT)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json (LOG_FORMAT)"},
			&cli.StringFlag{Name: "store", Usage: "Session store: memory, file, redis or sqlite (STORE_DRIVER)"},
			&cli.StringFlag{Name: "data-file", Usage: "JSON data file for the file store (DATA_FILE)"},
			&cli.BoolFlag{Name: "debug", Usage: "Shorthand for --log-level debug"},
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
					&cli.BoolFlag{Name: "no-reset", Usage: "Disable the scheduled reset (RESET_ENABLED=false)"},
				},
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:   "reset",
				Usage:  "Clear every area now and exit",
				Action: runReset,
			},
		},
		Action: runServe,
	}
}

// loadConfig reads the environment, applies flag overrides and validates
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}
	if cmd.IsSet("store") {
		cfg.Store.Driver = cmd.String("store")
	}
	if cmd.IsSet("data-file") {
		cfg.Store.DataFile = cmd.String("data-file")
	}
	if cmd.Bool("ngrok") {
		cfg.Ngrok.Enabled = true
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	if cmd.Bool("no-reset") {
		cfg.Reset.Enabled = false
	}

	if cfg.Ngrok.AuthToken == "" {
		// also support the underscore spelling
		cfg.Ngrok.AuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// services bundles the wired components shared by every command
type services struct {
	store    session.Store
	rotation service.RotationService
	hub      *websocket.Hub
}

// initializeServices opens the configured store and wires the rotation
// service and WebSocket hub around it
func initializeServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services, error) {
	store, err := session.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	rotation := service.NewRotationService(store,
		service.WithLogger(logger.With("component", "service")),
		service.WithStrictReorder(cfg.StrictReorder),
	)

	return &services{
		store:    store,
		rotation: rotation,
		hub:      websocket.NewHub(logger.With("component", "websocket")),
	}, nil
}

// newAPIServer creates the REST API with the configured middleware
func newAPIServer(cfg *config.Config, svc *services, logger *slog.Logger) *api.Server {
	return api.NewServer(svc.rotation, svc.hub,
		api.WithLogger(logger.With("component", "api")),
		api.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	)
}

// mcpHandler serves MCP JSON-RPC messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter combines the API and the /mcp endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// runServe starts the HTTP server with REST API, WebSocket hub, metrics, the
// reset scheduler and an /mcp proxy endpoint. If ngrok is enabled it also
// provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.SlogLevel(), cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting", "app", AppName, "version", Version, "store", cfg.Store.Driver)

	svc, err := initializeServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	go svc.hub.Run()
	defer svc.hub.Stop()

	// Periodic reset
	if cfg.Reset.Enabled {
		sched, err := scheduler.New(svc.store, cfg.Reset.Schedule,
			scheduler.WithLogger(logger.With("component", "scheduler")),
			scheduler.OnReset(func() {
				svc.hub.BroadcastEvent("", websocket.EventReset)
			}),
		)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	} else {
		logger.Info("scheduled reset disabled")
	}

	addr := cfg.Addr()
	apiServer := newAPIServer(cfg, svc, logger)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?area=<area>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr),
			"metrics", fmt.Sprintf("http://%s/metrics", addr),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg.Ngrok, mainRouter, logger.With("component", "ngrok"))
		}()
	}

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serverErr:
		logger.Error("server stopped", "error", err)
	}
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP server shutdown error", "error", shutdownErr)
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg config.NgrokConfig, handler http.Handler, logger *slog.Logger) {
	if cfg.AuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		logger.Info("using custom ngrok domain", "domain", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?area=<area>",
		"mcp", ngrokURL+"/mcp",
	)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether a server answers /health at baseURL
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address; otherwise it starts an internal HTTP API bound
// to a random loopback port and targets that. The internal API does not run
// the reset scheduler.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.SlogLevel(), cfg.LogFormat)

	externalURL := fmt.Sprintf("http://%s", cfg.Addr())
	logger.Info("checking for external API server", "url", externalURL)

	baseURL := externalURL
	if externalAPIAvailable(externalURL) {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.store.Close()

		go svc.hub.Run()
		defer svc.hub.Stop()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{Handler: newAPIServer(cfg, svc, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runReset clears the configured store once
func runReset(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.SlogLevel(), cfg.LogFormat)

	store, err := session.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer store.Close()

	sched, err := scheduler.New(store, cfg.Reset.Schedule, scheduler.WithLogger(logger))
	if err != nil {
		return err
	}
	return sched.RunOnce(ctx)
}
