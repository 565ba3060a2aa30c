package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/claude/amp/internal/api"
	"github.com/claude/amp/internal/bridge"
	"github.com/claude/amp/internal/config"
	"github.com/claude/amp/internal/mcp"
	"github.com/claude/amp/internal/models"
	"github.com/claude/amp/internal/session"
	"github.com/claude/amp/internal/store"
	"github.com/claude/amp/internal/transport"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Usage: amp [flags] <command> [command flags]

Commands:
  login -u USER -p PASS                 log in and store the session
  register -u USER -p PASS [-email E]   create an account and log in
  logout                                forget the stored session
  status                                show the session, API health and recent workouts
  serve                                 run the local HTTP bridge
  mcp                                   serve MCP over stdio

Flags:
`

func main() {
	configPath := flag.String("config", "amp.yaml", "path to config file (optional)")
	envPath := flag.String("env", ".env", "path to .env file (optional)")
	ephemeral := flag.Bool("ephemeral", false, "keep the session in memory only")
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println("amp", Version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, *ephemeral, flag.Args(), log); err != nil {
		if msg, ok := userMessage(err); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		} else {
			log.Error("command failed", "command", flag.Arg(0), "error", err)
		}
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	machine *session.Machine
	tr      *transport.Transport
	log     *slog.Logger
}

func run(cfg *config.Config, ephemeral bool, args []string, log *slog.Logger) error {
	tr, err := transport.New(transport.Options{
		Timeout:   cfg.API.Timeout,
		Tailscale: cfg.Tailscale.Enabled,
		Hostname:  cfg.Tailscale.Hostname,
		StateDir:  cfg.Tailscale.StateDir,
	}, log)
	if err != nil {
		return err
	}
	defer tr.Close()

	var st store.Store
	if ephemeral {
		st = store.NewMemoryStore()
	} else {
		sqlite, err := store.OpenSQLiteStore(cfg.StateDir, log)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		st = sqlite
	}

	client := api.NewClient(cfg.API.URL, tr.HTTPClient(), log)
	machine := session.New(client, st, log)
	defer machine.Close()

	a := &app{cfg: cfg, machine: machine, tr: tr, log: log}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status(ctx)
	case "serve":
		return a.serve(ctx)
	case "mcp":
		return a.serveMCP(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.machine.Start(ctx); err != nil {
		return err
	}
	if err := a.machine.RequestLogin(ctx, *username, *password); err != nil {
		return err
	}
	a.machine.Wait()
	printView(os.Stdout, a.machine.View())
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Registered is reported even when the follow-up login fails.
	a.machine.Subscribe(func(u session.Update) {
		if u.Notice.Kind == session.NoticeRegistered {
			fmt.Println("Registration successful, logging in...")
		}
	})
	if err := a.machine.Start(ctx); err != nil {
		return err
	}
	creds := models.Credentials{Username: *username, Password: *password, Email: *email}
	if err := a.machine.RequestRegister(ctx, creds); err != nil {
		return err
	}
	a.machine.Wait()
	printView(os.Stdout, a.machine.View())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.machine.Start(ctx); err != nil {
		return err
	}
	// Let the restore fetch settle so it cannot race the logout.
	a.machine.Wait()
	if err := a.machine.RequestLogout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// status restores the session and, concurrently, checks API health while the
// restore fetch runs.
func (a *app) status(ctx context.Context) error {
	a.machine.Subscribe(func(u session.Update) {
		if u.Notice.Kind == session.NoticeSessionExpired {
			fmt.Fprintln(os.Stderr, u.Notice.Message)
		}
	})
	if err := a.machine.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.machine.CheckHealth(gctx)
		return nil
	})
	g.Go(func() error {
		a.machine.Wait()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	printView(os.Stdout, a.machine.View())
	return nil
}

func (a *app) serve(ctx context.Context) error {
	if err := a.machine.Start(ctx); err != nil {
		return err
	}
	a.machine.CheckHealth(ctx)

	ln, err := a.tr.Listen(a.cfg.Bridge.Addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{Handler: bridge.New(a.machine, a.log)}

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()
	a.log.Info("bridge listening", "addr", ln.Addr().String(), "api", a.cfg.API.URL, "tailnet", a.tr.Tailnet())

	// Graceful shutdown
	select {
	case err := <-errc:
		return fmt.Errorf("bridge server: %w", err)
	case <-ctx.Done():
	}
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("shutdown error", "error", err)
	}
	a.log.Info("bridge stopped")
	return nil
}

func (a *app) serveMCP(ctx context.Context) error {
	if err := a.machine.Start(ctx); err != nil {
		return err
	}
	s := mcp.New(a.machine, Version, a.log)
	a.log.Info("mcp server starting on stdio")
	if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
