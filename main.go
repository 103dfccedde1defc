// Command slidepuzzle starts the slide puzzle server.
//
// It supports three subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the
//     websocket hub and an /mcp streamable HTTP endpoint
//  2. "mcp" runs an MCP stdio server, reusing a running server when one
//     answers and starting an internal one otherwise
//  3. "validate" checks every level file in the levels directory
//
// Every flag can also be set through the environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/slidepuzzle/api"
	"github.com/wricardo/slidepuzzle/game/levels"
	"github.com/wricardo/slidepuzzle/game/progress"
	"github.com/wricardo/slidepuzzle/game/service"
	"github.com/wricardo/slidepuzzle/game/session"
	"github.com/wricardo/slidepuzzle/transport/mcp"
	"github.com/wricardo/slidepuzzle/transport/websocket"
	"github.com/wricardo/slidepuzzle/validate"
)

// Version information
const (
	Version = "3.0.0"
	AppName = "Slide Puzzle Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	cleanupInterval     = time.Hour
	filesystemSyncEvery = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var log = logrus.WithField("component", "main")

// config is the resolved set of flags
type config struct {
	Host          string
	Port          int
	LevelDir      string
	SessionsDir   string
	ProgressStore string
	ProgressFile  string
	DatabaseURL   string

	NgrokEnabled bool
	NgrokToken   string
	NgrokDomain  string
}

func (c config) addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// localURL is where in-process clients reach the server
func (c config) localURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(c.Port))
}

func main() {
	loadEnv()

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("exiting")
	}
}

// loadEnv reads .env when present
func loadEnv() {
	err := godotenv.Load()
	switch {
	case err == nil:
		log.Debug("loaded environment variables from .env")
	case !errors.Is(err, fs.ErrNotExist):
		log.WithError(err).Warn("failed to load .env file")
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "slidepuzzle",
		Usage:   AppName,
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "levels-dir", Value: "levels", Usage: "directory containing level files", Sources: cli.EnvVars("LEVEL_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "progress-store", Value: progress.BackendJSON, Usage: "collectible store: json, postgres or memory", Sources: cli.EnvVars("PROGRESS_STORE")},
			&cli.StringFlag{Name: "progress-file", Value: "progress.json", Usage: "file used by the json progress store", Sources: cli.EnvVars("PROGRESS_FILE")},
			&cli.StringFlag{Name: "database-url", Usage: "Postgres connection string for the postgres progress store", Sources: cli.EnvVars("DATABASE_URL")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "shortcut for --log-level debug"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: configureLogging,
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server with REST API, websocket and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server",
				Action:  mcpAction,
			},
			{
				Name:  "validate",
				Usage: "check the level files in the levels directory",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validateAction(out, configFrom(cmd))
				},
			},
		},
	}
}

func configFrom(cmd *cli.Command) config {
	return config{
		Host:          cmd.String("host"),
		Port:          int(cmd.Int("port")),
		LevelDir:      cmd.String("levels-dir"),
		SessionsDir:   cmd.String("sessions-dir"),
		ProgressStore: cmd.String("progress-store"),
		ProgressFile:  cmd.String("progress-file"),
		DatabaseURL:   cmd.String("database-url"),
		NgrokEnabled:  cmd.Bool("ngrok"),
		NgrokToken:    cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
	}
}

func configureLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := logrus.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, fmt.Errorf("invalid log level: %w", err)
	}
	if cmd.Bool("debug") {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return ctx, nil
}

// services holds everything built from the configuration
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	progress    progress.Store
}

// Close flushes sessions and closes the progress store
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("failed to save sessions")
	}
	if err := s.progress.Close(); err != nil {
		log.WithError(err).Warn("failed to close progress store")
	}
}

// initializeServices wires the level, progress and session stores into the
// game service and restores persisted sessions.
func initializeServices(cfg config) (*services, error) {
	levelManager, err := levels.NewManager(cfg.LevelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	store, err := progress.Open(cfg.ProgressStore, cfg.ProgressFile, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessions := session.NewManagerWithPersistence(persistence, session.WithProgress(store))
	if err := sessions.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted sessions")
	}

	return &services{
		game:        service.NewGameService(sessions, levelManager),
		sessions:    sessions,
		persistence: persistence,
		progress:    store,
	}, nil
}

// newHandler builds the API server with the MCP endpoint mounted at /mcp
func newHandler(svc service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(svc, hub)
	apiServer.Mount("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := configFrom(cmd)
	log.WithField("version", Version).Infof("starting %s", AppName)

	svcs, err := initializeServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	hub := websocket.NewHub()
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	handler := newHandler(svcs.game, hub, cfg.localURL())
	httpServer := &http.Server{
		Addr:         cfg.addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":      cfg.addr(),
			"api":       cfg.localURL() + "/api",
			"websocket": cfg.localURL() + "/ws?session=<session_id>",
			"mcp":       cfg.localURL() + "/mcp",
		}).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sessionCleanupRoutine(ctx, svcs.sessions, cleanupInterval)
		return nil
	})
	g.Go(func() error {
		filesystemSyncRoutine(ctx, svcs.sessions, svcs.persistence, filesystemSyncEvery)
		return nil
	})

	if cfg.NgrokEnabled {
		g.Go(func() error {
			runNgrok(ctx, cfg, handler)
			return nil
		})
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}

// sessionCleanupRoutine drops sessions not accessed within sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(sessionMaxAge)
		}
	}
}

// filesystemSyncRoutine removes sessions from memory once their files are
// deleted, so an operator can end a session by removing its file.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneDeletedSessions(manager, persistence)
		}
	}
}

func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.WithField("session", sess.ID).Info("pruned session whose file was deleted")
		}
	}
	return pruned
}

// runNgrok serves handler through a public tunnel until ctx is done. A
// missing token or a failed tunnel is logged; the local server keeps
// running.
func runNgrok(ctx context.Context, cfg config, handler http.Handler) {
	if cfg.NgrokToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	endpoint := ngrokconfig.HTTPEndpoint()
	if cfg.NgrokDomain != "" {
		endpoint = ngrokconfig.HTTPEndpoint(ngrokconfig.WithDomain(cfg.NgrokDomain))
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(cfg.NgrokToken))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	log.WithFields(logrus.Fields{
		"url":       url,
		"api":       url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Info("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server stopped")
	}
}

// mcpAction serves MCP over stdio. It proxies to a server already running
// at the configured address, or starts an internal API on a loopback port.
// Logs go to stderr so stdout stays reserved for the protocol.
func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg := configFrom(cmd)
	logrus.SetOutput(os.Stderr)

	baseURL := cfg.localURL()
	if !apiAvailable(baseURL) {
		svcs, err := initializeServices(cfg)
		if err != nil {
			return err
		}
		defer svcs.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		hub := websocket.NewHub()
		go hub.Run(ctx)

		internal := &http.Server{Handler: api.NewServer(svcs.game, hub)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server failed")
			}
		}()
		defer internal.Close()

		baseURL = "http://" + listener.Addr().String()
		log.WithField("url", baseURL).Info("started internal HTTP server for MCP stdio")
	} else {
		log.WithField("url", baseURL).Info("using running server for MCP stdio")
	}

	return mcp.NewClient(baseURL).ServeStdio()
}

// apiAvailable reports whether a server answers the health check
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func validateAction(out io.Writer, cfg config) error {
	results, err := validate.Dir(cfg.LevelDir)
	if err != nil {
		return err
	}
	if !validate.Report(out, results) {
		return cli.Exit("level validation failed", 1)
	}
	return nil
}
