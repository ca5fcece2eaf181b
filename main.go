// Command tiles serves sliding tile games over HTTP and MCP.
//
// Modes:
//
//	server (default, alias http)   REST API, WebSocket updates, /metrics and a POST /mcp endpoint
//	mcp (aliases stdio-mcp, mcp-stdio)   MCP over stdio, backed by a running API or an internal one
//
// An ngrok tunnel can expose the server mode for remote agents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/tiles/api"
	"github.com/wricardo/tiles/game/config"
	"github.com/wricardo/tiles/game/service"
	"github.com/wricardo/tiles/game/session"
	"github.com/wricardo/tiles/transport/mcp"
	"github.com/wricardo/tiles/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

const (
	Version = "1.0.0"
	AppName = "Tiles Game Server"
)

const (
	modeServer = "server"
	modeMCP    = "mcp"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envOr("CONFIG_DIR", "configs"), "Directory containing game configurations")
	defaultCfg   = flag.String("default-config", envOr("DEFAULT_CONFIG", ""), "Config used when a session names none (or DEFAULT_CONFIG; classic if present)")
	sessionTTL   = flag.Duration("session-ttl", 24*time.Hour, "Remove sessions not accessed for this long")
	debug        = flag.Bool("debug", false, "Log file and line numbers")
	version      = flag.Bool("version", false, "Print the version and exit")
	ngrokEnabled = flag.Bool("ngrok", false, "Expose the server through an ngrok tunnel (or NGROK_ENABLED=true)")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or NGROK_AUTHTOKEN / NGROK_AUTH_TOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Reserved ngrok domain (or NGROK_DOMAIN)")
)

// serverConfig is everything a mode needs after flags and the environment
// have been resolved.
type serverConfig struct {
	Addr       string
	Port       int
	ConfigDir     string
	DefaultConfig string
	SessionTTL    time.Duration
	Ngrok      ngrokSettings
}

type ngrokSettings struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// resolveNgrok fills blanks from NGROK_* environment variables. Flags win.
func resolveNgrok(enabled bool, authToken, domain string) ngrokSettings {
	if !enabled {
		env := strings.ToLower(os.Getenv("NGROK_ENABLED"))
		enabled = env == "true" || env == "1"
	}
	if authToken == "" {
		authToken = envOr("NGROK_AUTHTOKEN", os.Getenv("NGROK_AUTH_TOKEN"))
	}
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}
	return ngrokSettings{Enabled: enabled, AuthToken: authToken, Domain: domain}
}

func (n ngrokSettings) endpoint() ngrokConfig.Tunnel {
	if n.Domain != "" {
		return ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(n.Domain))
	}
	return ngrokConfig.HTTPEndpoint()
}

// parseMode maps the first positional argument onto a mode, accepting the
// historical aliases.
func parseMode(args []string) (string, error) {
	if len(args) == 0 {
		return modeServer, nil
	}
	switch args[0] {
	case "server", "http":
		return modeServer, nil
	case "mcp", "stdio-mcp", "mcp-stdio":
		return modeMCP, nil
	}
	return "", fmt.Errorf("unknown mode %q: use 'server' (default) or 'mcp'", args[0])
}

func init() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "%s v%s\n\nUsage: %s [OPTIONS] [server|mcp]\n\n", AppName, Version, os.Args[0])
		fmt.Fprintln(out, "Modes:")
		fmt.Fprintln(out, "  server, http               HTTP server with REST API, WebSocket, metrics and /mcp (default)")
		fmt.Fprintln(out, "  mcp, stdio-mcp, mcp-stdio  MCP stdio server; starts an internal API if -port is not serving")
		fmt.Fprintln(out, "\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	switch err := godotenv.Load(); {
	case err == nil:
		log.Println("Loaded environment variables from .env file")
	case !os.IsNotExist(err):
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	logFlags := log.LstdFlags
	if *debug {
		logFlags |= log.Lshortfile
	}
	log.SetFlags(logFlags)

	mode, err := parseMode(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	cfg := serverConfig{
		Addr:       fmt.Sprintf("%s:%d", *host, *port),
		Port:       *port,
		ConfigDir:     *configDir,
		DefaultConfig: *defaultCfg,
		SessionTTL:    *sessionTTL,
		Ngrok:      resolveNgrok(*ngrokEnabled, *ngrokAuth, *ngrokDomain),
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	a, err := initializeServices(cfg.ConfigDir, cfg.DefaultConfig)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	go a.hub.Run()
	go sessionCleanupRoutine(a.sessions, time.Hour, cfg.SessionTTL)

	if mode == modeMCP {
		runStdioMCP(a, cfg)
		return
	}
	runHTTPServer(a, cfg)
}

// app is the game service with the pieces main drives directly: the
// session manager for cleanup and the hub every state change is sent to.
type app struct {
	game     service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
}

// initializeServices builds the config and session managers behind a game
// service whose changes reach the websocket hub. A non-empty defaultConfig
// must name a loadable config.
func initializeServices(dir, defaultConfig string) (*app, error) {
	configs, err := config.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if defaultConfig != "" {
		if err := configs.SetDefault(defaultConfig); err != nil {
			return nil, fmt.Errorf("default config: %w", err)
		}
		log.Printf("Default config: %s", defaultConfig)
	}

	a := &app{sessions: session.NewManager(), hub: websocket.NewHub()}
	a.game = service.NewGameService(a.sessions, configs, service.WithStateListener(a.hub.Publish))
	return a, nil
}

// sessionCleanupRoutine drops sessions idle for longer than maxAge, checking every tick.
func sessionCleanupRoutine(manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
			log.Printf("Cleaned up %d expired sessions", removed)
		}
	}
}

// newMainRouter serves the API at / and MCP JSON-RPC messages at POST /mcp.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		message, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		reply := mcpClient.GetMCPServer().HandleMessage(r.Context(), message)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			log.Printf("Failed to write MCP response: %v", err)
		}
	})
	return mux
}

func (a *app) apiHandler() http.Handler {
	return api.NewServer(a.game, a.hub)
}

// runHTTPServer blocks until SIGINT or SIGTERM, then shuts the listener and
// any ngrok tunnel down.
func runHTTPServer(a *app, cfg serverConfig) {
	baseURL := "http://" + cfg.Addr
	router := newMainRouter(a.apiHandler(), mcp.NewClient(baseURL))

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEndpoints("", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, cfg.Ngrok, router); err != nil {
				log.Printf("Ngrok tunnel: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

func logEndpoints(via, baseURL string) {
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http")
	log.Printf("REST API%s: %s/api", via, baseURL)
	log.Printf("WebSocket%s: %s/ws?session=<session_id>", via, wsURL)
	log.Printf("Metrics%s: %s/metrics", via, baseURL)
	log.Printf("MCP endpoint%s: %s/mcp", via, baseURL)
}

// serveNgrok serves handler through a tunnel until ctx is done.
func serveNgrok(ctx context.Context, settings ngrokSettings, handler http.Handler) error {
	if settings.AuthToken == "" {
		return errors.New("enabled but no auth token (use -ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
	}

	tun, err := ngrok.Listen(ctx, settings.endpoint(), ngrok.WithAuthtoken(settings.AuthToken))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	log.Printf("Ngrok tunnel established: %s", tun.URL())
	logEndpoints(" (ngrok)", tun.URL())

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		return err
	}
	log.Println("Ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether something answering like the API listens at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalAPI serves the API on a random loopback port and returns its base URL.
func startInternalAPI(a *app) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	httpServer := &http.Server{Handler: a.apiHandler()}
	// The listener is already bound, so requests queue until Serve starts
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	return "http://" + listener.Addr().String(), nil
}

// runStdioMCP serves MCP over stdin/stdout. Tools go to the API on
// localhost:cfg.Port when one answers, otherwise to an internal API.
func runStdioMCP(a *app, cfg serverConfig) {
	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if apiAvailable(baseURL) {
		log.Printf("MCP stdio server using external API at %s", baseURL)
	} else {
		internal, err := startInternalAPI(a)
		if err != nil {
			log.Fatal(err)
		}
		baseURL = internal
		log.Printf("MCP stdio server using internal API at %s", baseURL)
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
