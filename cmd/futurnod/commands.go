package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/zubairashfaque/FuturNod-Agents/internal/backoff"
	"github.com/zubairashfaque/FuturNod-Agents/internal/services"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

// errReported marks failures already shown to the user.
var errReported = errors.New("reported")

type outputFlags struct {
	json bool
	save bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the search result as JSON")
	cmd.Flags().BoolVar(&o.save, "save", false, "Write the report to reportsDir as <id>.md")
}

func initCmd(g *globals, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or update a CLI profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cliConfigPath()
			cfg, err := loadCLIConfig(path)
			if err != nil {
				return err
			}
			name := resolveProfileName(g.profileName, cfg)
			prof := cfg.Profiles[name]
			r := bufio.NewReader(os.Stdin)

			fmt.Println(ui.title("Profile"), name)
			prof.BaseURL = prompt(r, "Agent API base URL", firstNonEmpty(prof.BaseURL, "https://localhost:8000"))
			prof.UserID = prompt(r, "User id", firstNonEmpty(prof.UserID, g.userID, os.Getenv("USER")))
			key, err := promptSecret(r, fmt.Sprintf("Agent API key (%s)", maskToken(prof.APIKey)))
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if key != "" {
				prof.APIKey = key
			}
			prof.HistoryProvider = prompt(r, "History provider (memory|redis|none)", firstNonEmpty(prof.HistoryProvider, "memory"))
			if prof.HistoryProvider == "redis" {
				prof.RedisAddr = prompt(r, "Redis address", firstNonEmpty(prof.RedisAddr, "localhost:6379"))
			}

			cfg.Profiles[name] = prof
			cfg.CurrentProfile = name
			if err := saveCLIConfig(cfg, path); err != nil {
				return err
			}
			fmt.Printf("%s Saved profile %s to %s\n", ui.ok("[OK]"), name, ui.dim(path))
			return nil
		},
	}
}

func healthCmd(g *globals, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the agent service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
			spin.Suffix = " Checking agent service..."
			spin.Start()
			ok := s.facade.CheckHealth(cmd.Context())
			spin.Stop()
			ui.notice(services.HealthNotice(ok))
			if !ok {
				return errReported
			}
			return nil
		},
	}
}

func searchCmd(g *globals, ui *ui) *cobra.Command {
	var (
		company string
		product string
		out     outputFlags
	)
	cmd := &cobra.Command{
		Use:     "search",
		Short:   "Run a free-form search",
		Long:    "Run a search. --company also selects a specialist agent when it names one.",
		Example: `futurnod search --company "Acme Corp" --product "Widget X"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()
			return runSearch(cmd.Context(), s, ui, out, func(ctx context.Context) (domain.SearchResult, error) {
				return s.facade.Submit(ctx, company, product)
			})
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Target company, or an agent name")
	cmd.Flags().StringVar(&product, "product", "", "Product description, or a JSON payload")
	out.register(cmd)
	return cmd
}

func agentCmd(g *globals, ui *ui) *cobra.Command {
	var (
		params     string
		paramsFile string
		out        outputFlags
	)
	cmd := &cobra.Command{
		Use:       "agent <variant>",
		Short:     "Run a specialist agent with a structured form",
		Args:      cobra.ExactArgs(1),
		ValidArgs: agentNames(),
		Example:   `futurnod agent contract-vista --params '{"query":"summarize the termination clauses"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := domain.Agent(args[0])
			if !agent.Known() {
				return fmt.Errorf("unknown agent %q (known: %s)", args[0], strings.Join(agentNames(), ", "))
			}
			raw, err := readParams(params, paramsFile)
			if err != nil {
				return err
			}
			p, err := domain.DecodeParams(agent, raw)
			if err != nil {
				return err
			}
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()
			return runSearch(cmd.Context(), s, ui, out, func(ctx context.Context) (domain.SearchResult, error) {
				return s.facade.SubmitStructured(ctx, agent, p)
			})
		},
	}
	cmd.Flags().StringVar(&params, "params", "", "Form as JSON")
	cmd.Flags().StringVar(&paramsFile, "params-file", "", "Read the form from a file, - for stdin")
	out.register(cmd)
	return cmd
}

func agentsCmd(ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agents",
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range domain.KnownAgents() {
				line := a.String()
				if a.Default() {
					line += " " + ui.dim("(default)")
				}
				fmt.Println(line)
			}
		},
	}
}

func historyCmd(g *globals, ui *ui) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()
			recs, err := s.facade.PersistedHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println(ui.dim("no recorded searches"))
				return nil
			}
			for _, r := range recs {
				fmt.Printf("%s  %-8s %-22s %s  %s\n",
					ui.dim(r.CreatedAt.Local().Format("2006-01-02 15:04")),
					ui.status(r.Status), r.Agent.String(), r.Company, ui.dim(r.ID))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records")

	var out outputFlags
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a recorded search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()
			sr, err := s.facade.LoadHistoryItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.Context(), s, ui, out, sr)
		},
	}
	out.register(show)
	cmd.AddCommand(show)
	return cmd
}

func runSearch(ctx context.Context, s *session, ui *ui, out outputFlags, submit func(context.Context) (domain.SearchResult, error)) error {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " Checking agent service and launching..."
	spin.Start()
	sr, err := submit(ctx)
	spin.Stop()
	if err != nil {
		if errors.Is(err, domain.ErrUnhealthy) {
			ui.notice(services.HealthNotice(false))
			return errReported
		}
		return err
	}

	if !sr.Terminal() {
		fmt.Fprintf(os.Stderr, "%s %s task started %s\n", ui.info("[..]"), sr.Agent.String(), ui.dim(sr.ID))
		sr, err = waitWithProgress(ctx, s, sr)
		if err != nil {
			return err
		}
	}
	return printResult(ctx, s, ui, out, sr)
}

// waitWithProgress shows elapsed time against the polling budget.
func waitWithProgress(ctx context.Context, s *session, sr domain.SearchResult) (domain.SearchResult, error) {
	p := s.cfg.Polling
	budget := backoff.New(p.Policy,
		time.Duration(p.IntervalSeconds)*time.Second,
		time.Duration(p.MaxIntervalSeconds)*time.Second, nil).Budget(p.MaxAttempts)
	total := int64(budget.Seconds())
	if total < 1 {
		total = 1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Waiting for "+sr.Agent.String()),
		progressbar.OptionSetWidth(24),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)

	type waited struct {
		sr  domain.SearchResult
		err error
	}
	done := make(chan waited, 1)
	go func() {
		final, err := s.facade.Wait(ctx, sr.ID)
		done <- waited{final, err}
	}()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	var elapsed int64
	for {
		select {
		case w := <-done:
			_ = bar.Finish()
			return w.sr, w.err
		case <-tick.C:
			if elapsed++; elapsed < total {
				_ = bar.Add(1)
			}
		}
	}
}

func printResult(ctx context.Context, s *session, ui *ui, out outputFlags, sr domain.SearchResult) error {
	if out.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sr); err != nil {
			return err
		}
	}
	if sr.Status == domain.StatusError {
		if !out.json {
			fmt.Fprintf(os.Stderr, "%s %s\n", ui.err("[ERROR]"), sr.Error)
		}
		return errReported
	}
	if !out.json && sr.Result != nil {
		fmt.Print(renderMarkdown(sr.Result.RawMarkdown))
	}
	if out.save {
		path, err := s.app.Reports.Write(ctx, sr)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s Report saved to %s\n", ui.ok("[OK]"), path)
	}
	return nil
}

func readParams(inline, file string) (json.RawMessage, error) {
	switch {
	case inline != "" && file != "":
		return nil, errors.New("use either --params or --params-file")
	case inline != "":
		return json.RawMessage(inline), nil
	case file == "-":
		return io.ReadAll(os.Stdin)
	case file != "":
		return os.ReadFile(file)
	}
	return nil, errors.New("--params or --params-file is required")
}

func agentNames() []string {
	agents := domain.KnownAgents()
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.String())
	}
	return out
}
