package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zubairashfaque/FuturNod-Agents/internal/services"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/app"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth/static"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/config"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

type globals struct {
	profileName string
	configPath  string
	baseURL     string
	apiKey      string
	userID      string
	insecure    bool
	verbose     bool
}

// session is an in-process Façade for one CLI invocation.
type session struct {
	app    *app.Application
	facade *services.Facade
	cfg    *config.Config
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.app.Close(ctx)
}

func main() {
	_, _ = config.LoadDotEnv(".")
	ui := newUI()
	g := &globals{
		configPath: getenv("FUTURNOD_CONFIG_PATH", ""),
	}

	root := &cobra.Command{
		Use:   "futurnod",
		Short: "FuturNod agents CLI",
		Long:  "Submit research jobs to the FuturNod agents and read their reports.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.StringVar(&g.profileName, "profile", getenv("FUTURNOD_PROFILE", ""), "CLI profile")
	pf.StringVar(&g.configPath, "config", g.configPath, "Service config file (YAML)")
	pf.StringVar(&g.baseURL, "base-url", "", "Agent API base URL")
	pf.StringVar(&g.apiKey, "api-key", "", "Agent API key")
	pf.StringVar(&g.userID, "user", g.userID, "User id history is recorded under")
	pf.BoolVar(&g.insecure, "insecure", false, "Skip TLS verification of the agent API")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		initCmd(g, ui),
		healthCmd(g, ui),
		searchCmd(g, ui),
		agentCmd(g, ui),
		agentsCmd(ui),
		historyCmd(g, ui),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err)
		}
		os.Exit(1)
	}
}

// openSession resolves flags over profile over env and builds the Façade.
func openSession(g *globals) (*session, error) {
	if !g.verbose {
		log.SetOutput(io.Discard)
	}
	cfg, err := config.LoadConfigOptional(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	prof, err := activeProfile(g.profileName)
	if err != nil {
		return nil, err
	}
	prof.apply(cfg)
	if g.baseURL != "" {
		cfg.AgentAPI.BaseURL = strings.TrimRight(g.baseURL, "/")
	}
	if g.apiKey != "" {
		cfg.AgentAPI.APIKey = g.apiKey
	}
	if g.insecure {
		cfg.AgentAPI.InsecureSkipVerify = true
	}
	if !g.verbose {
		cfg.LogLevel = "error"
	}
	cfg.LogFormat = "text"
	cfg.RateLimit.SubmitPerMinute = 0
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var logOut io.Writer = io.Discard
	if g.verbose {
		logOut = os.Stderr
	}
	// The CLI user is trusted; bearer validation only guards the HTTP API.
	self, err := static.NewValidatorFromJSON(nil)
	if err != nil {
		return nil, err
	}
	application, err := app.NewApplication(cfg, app.WithLogOutput(logOut), app.WithValidator(self))
	if err != nil {
		return nil, err
	}
	userID := firstNonEmpty(g.userID, prof.UserID, os.Getenv("FUTURNOD_USER"), os.Getenv("USER"), domain.AnonymousUser)
	return &session{app: application, facade: application.Sessions.For(userID), cfg: cfg}, nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
