package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/infra/auth"
	"github.com/CrestNiraj12/whispernet/infra/config"
	"github.com/CrestNiraj12/whispernet/infra/editor"
	"github.com/CrestNiraj12/whispernet/infra/logging"
	"github.com/CrestNiraj12/whispernet/infra/snapshot"
	"github.com/CrestNiraj12/whispernet/infra/whisper"
	"github.com/CrestNiraj12/whispernet/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// snapshotMaxAge bounds how stale an offline dataset may get before it is pruned.
const snapshotMaxAge = 30 * 24 * time.Hour

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func versionString() string {
	v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "whispernet",
		Usage:   "whisper something kind from your terminal",
		Version: versionString(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"WHISPERNET_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Override the backend `URL`",
			},
			&cli.BoolFlag{
				Name:  "incognito",
				Usage: "Start in incognito mode",
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store a bearer token for the backend",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "Access `TOKEN` issued by the backend",
						Required: true,
					},
				},
				Action: runLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token",
				Action: runLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Print the profile of the stored token",
				Action: runWhoami,
			},
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if raw := c.String("base-url"); raw != "" {
		base, err := config.NormalizeBaseURL(raw)
		if err != nil {
			return config.Config{}, fmt.Errorf("--base-url: %w", err)
		}
		cfg.BaseURL = base
	}
	return cfg, nil
}

func newClient(cfg config.Config, tp auth.TokenProvider) *whisper.Client {
	return whisper.NewClient(cfg.BaseURL, tp,
		whisper.WithTimeout(cfg.RequestTimeout),
		whisper.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
}

func runTUI(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unexpected argument: %s", strings.Join(c.Args().Slice(), " "))
	}

	// 1. Load config and logging.
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logCloser.Close()

	// 2. Session: token and persisted preferences.
	session := app.NewSession()
	token, err := auth.LoadOptionalToken(cfg.TokenPath)
	if err != nil {
		log.Warn().Err(err).Msg("token unreadable, continuing anonymously")
	}
	session.SetToken(token)

	uiState, err := config.LoadUIState(cfg.StatePath)
	if err != nil {
		log.Warn().Err(err).Msg("ui state unreadable, using defaults")
	}
	if c.IsSet("incognito") {
		uiState.Incognito = c.Bool("incognito")
	}
	session.SetIncognito(uiState.Incognito)

	// 3. Build infrastructure. The session is the token source so signing
	// out takes effect on the next request.
	client := newClient(cfg, session)
	messageSvc := whisper.NewMessageService(client)
	commentSvc := whisper.NewCommentService(client)
	accountSvc := whisper.NewAccountService(client)
	fallback := whisper.NewFallback()

	var snapshots app.Snapshots
	if store, err := snapshot.Open(cfg.SnapshotPath); err != nil {
		log.Error().Err(err).Str("path", cfg.SnapshotPath).Msg("snapshot store unavailable")
	} else {
		defer store.Close()
		if n, err := store.Prune(context.Background(), snapshotMaxAge); err != nil {
			log.Error().Err(err).Msg("pruning snapshots")
		} else if n > 0 {
			log.Debug().Int64("removed", n).Msg("pruned stale snapshots")
		}
		snapshots = store
	}

	// 4. Engines.
	feed := engine.NewFeed(engine.FeedDeps{
		Messages:  messageSvc,
		Accounts:  accountSvc,
		Snapshots: snapshots,
		Fallback:  fallback,
		Session:   session,
		Limit:     cfg.FeedLimit,
		Debounce:  cfg.SearchDebounce,
	})
	rankings := engine.NewRankings(engine.RankingsDeps{
		Accounts:  accountSvc,
		Snapshots: snapshots,
		Fallback:  fallback,
		Local:     feed.All,
	})

	// 5. Wire root TUI model and run.
	root := tui.NewApp(tui.Deps{
		Feed:      feed,
		Rankings:  rankings,
		Comments:  commentSvc,
		Accounts:  accountSvc,
		Snapshots: snapshots,
		Fallback:  fallback,
		Session:   session,
		Editor:    editor.NewEnvEditor(),
		UIState:   uiState,
		StatePath: cfg.StatePath,
	})
	defer root.Close()

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("whispernet: %w", err)
	}
	return nil
}

func runLogin(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := auth.WriteToken(cfg.TokenPath, c.String("token")); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Token saved to %s\n", cfg.TokenPath)
	return nil
}

func runLogout(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := os.Remove(cfg.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Signed out.")
	return nil
}

func runWhoami(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client := newClient(cfg, auth.NewFileTokenProvider(cfg.TokenPath))
	p, err := whisper.NewAccountService(client).CurrentProfile(c.Context)
	if err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s (%s)\n", p.Name(), p.UserID)
	return nil
}

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
