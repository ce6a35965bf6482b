package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stemsi/exsim-backend/internal/catalog"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/database"
	"github.com/stemsi/exsim-backend/internal/engine"
	"github.com/stemsi/exsim-backend/internal/logger"
	"github.com/stemsi/exsim-backend/internal/model"
	"github.com/stemsi/exsim-backend/internal/repository"
	"github.com/stemsi/exsim-backend/internal/service"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run an assessment session in the terminal",
	Long: "Runs a session against the local SQLite store. Enter each module's outcome as\n" +
		"`p <score> <max> [seconds]` or `f <score> <max> [seconds]`; `q` saves and quits,\n" +
		"`a` abandons the session. An interrupted session resumes on the next run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		mode, _ := cmd.Flags().GetString("mode")
		yes, _ := cmd.Flags().GetBool("yes")

		store, closeStore, err := openLocalStore(cmd, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		m := engine.NewManager(resolveOwner(cmd), store, store, log, engine.Options{
			Policy:         policyFromConfig(cfg),
			ArchiveTimeout: cfg.ArchiveTimeout,
		})

		p := &player{
			in:          bufio.NewReader(cmd.InOrStdin()),
			out:         cmd.OutOrStdout(),
			interactive: term.IsTerminal(int(os.Stdin.Fd())),
			assumeYes:   yes,
		}
		return p.run(cmd.Context(), m, mode)
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List archived reports from the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		store, closeStore, err := openLocalStore(cmd, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		limit, _ := cmd.Flags().GetInt("limit")
		reports, err := store.ListByOwner(cmd.Context(), resolveOwner(cmd), limit)
		if err != nil {
			return fmt.Errorf("list reports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(reports) == 0 {
			fmt.Fprintln(out, "No archived reports.")
			return nil
		}
		for _, r := range reports {
			fmt.Fprintf(out, "%s  %s  %-8s  index %3d  %s  (%d%%)\n",
				r.CompletedAt.Local().Format(time.DateTime), r.SessionID, r.ExamMode,
				r.AbilityIndex, r.BandLabel, r.Percentage)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{playCmd, reportsCmd} {
		c.Flags().String("db", "", "Path to SQLite database file (overrides SQLITE_PATH)")
		c.Flags().String("owner", "", "Owner identifier (defaults to $USER)")
		c.Flags().Bool("ephemeral", false, "Keep everything in memory; nothing is written to disk")
	}
	playCmd.Flags().String("mode", catalog.DefaultModeID, "Exam mode: quick, standard or full")
	playCmd.Flags().Bool("yes", false, "Confirm abandon without prompting (required when stdin is not a terminal)")
	reportsCmd.Flags().Int("limit", service.DefaultReportLimit, "Maximum number of reports to list")
}

// localStore is everything the terminal runner persists to.
type localStore interface {
	engine.SnapshotStore
	engine.ReportStore
	service.ReportHistory
}

func openLocalStore(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) (localStore, func(), error) {
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		return repository.NewMemoryStore(), func() {}, nil
	}

	path := cfg.SQLitePath
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		path = p
	}

	db, err := database.NewSQLite(path, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := repository.NewSQLiteStore(cmd.Context(), db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, func() { db.Close() }, nil
}

func resolveOwner(cmd *cobra.Command) string {
	if o, _ := cmd.Flags().GetString("owner"); o != "" {
		return o
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// ────────────────────────────────────────────────────────────────────────────
// Terminal session runner
// ────────────────────────────────────────────────────────────────────────────

type player struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	assumeYes   bool
}

type commandKind int

const (
	cmdInvalid commandKind = iota
	cmdOutcome
	cmdQuit
	cmdAbandon
)

type playCommand struct {
	kind    commandKind
	outcome model.Outcome
	problem string
}

func (p *player) run(ctx context.Context, m *engine.Manager, mode string) error {
	session, err := m.Restore(ctx)
	if err != nil {
		return err
	}

	if session != nil {
		fmt.Fprintf(p.out, "Resuming %s session %s (%d/%d modules done)\n",
			session.ExamMode, session.ID, len(session.Results), len(session.Modules))
	} else {
		session, err = m.Start(ctx, mode)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		fmt.Fprintf(p.out, "Started %s session %s with %d modules\n",
			session.ExamMode, session.ID, len(session.Modules))
	}

	for {
		if _, ok := m.CurrentModule(); !ok {
			break
		}
		a, err := m.Assignment()
		if err != nil {
			return err
		}

		fmt.Fprintf(p.out, "\n[%d/%d] %s (%s)\n", a.Position, a.Total, a.Title, a.Category)
		fmt.Fprintf(p.out, "      level %d %s, %ds, item count x%.2f\n",
			a.Level, a.Profile.Name, a.TimeLimitSeconds, a.ItemCountMultiplier)
		fmt.Fprint(p.out, "result> ")

		line, readErr := p.in.ReadString('\n')
		if readErr != nil && strings.TrimSpace(line) == "" {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(p.out, "\nInput closed. Progress saved; run play again to resume.")
				return nil
			}
			return readErr
		}

		c := parseCommand(line)
		switch c.kind {
		case cmdQuit:
			fmt.Fprintln(p.out, "Progress saved; run play again to resume.")
			return nil

		case cmdAbandon:
			if !p.confirmAbandon() {
				continue
			}
			if err := m.Abandon(ctx); err != nil {
				return fmt.Errorf("abandon: %w", err)
			}
			fmt.Fprintln(p.out, "Session abandoned.")
			return nil

		case cmdOutcome:
			if _, err := m.SubmitResult(ctx, c.outcome); err != nil {
				if errors.Is(err, engine.ErrInvalidOutcome) {
					fmt.Fprintln(p.out, err)
					continue
				}
				return err
			}

		default:
			fmt.Fprintf(p.out, "%s. Use `p <score> <max> [seconds]`, `f <score> <max> [seconds]`, `q` or `a`.\n", c.problem)
		}
	}

	report, err := m.Finish(ctx)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	printReport(p.out, report)
	return nil
}

func (p *player) confirmAbandon() bool {
	if p.assumeYes {
		return true
	}
	if !p.interactive {
		fmt.Fprintln(p.out, "Refusing to abandon without a terminal; pass --yes to confirm.")
		return false
	}

	fmt.Fprint(p.out, "Abandon this session? All progress is lost. Type 'yes' to confirm: ")
	answer, _ := p.in.ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(answer), "yes") {
		return true
	}
	fmt.Fprintln(p.out, "Not abandoned.")
	return false
}

// parseCommand reads one prompt line. A bare "p" or "f" counts as a full or
// zero score out of one.
func parseCommand(line string) playCommand {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return playCommand{problem: "Empty input"}
	}

	var passed bool
	switch fields[0] {
	case "q", "quit":
		return playCommand{kind: cmdQuit}
	case "a", "abandon":
		return playCommand{kind: cmdAbandon}
	case "p", "pass":
		passed = true
	case "f", "fail":
		passed = false
	default:
		return playCommand{problem: fmt.Sprintf("Unknown command %q", fields[0])}
	}

	out := model.Outcome{Passed: passed}
	if len(fields) == 1 {
		out.MaxScore = 1
		if passed {
			out.Score = 1
		}
		return playCommand{kind: cmdOutcome, outcome: out}
	}
	if len(fields) < 3 || len(fields) > 4 {
		return playCommand{problem: "Expected a score and a max score"}
	}

	nums := make([]float64, 0, 3)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return playCommand{problem: fmt.Sprintf("%q is not a number", f)}
		}
		nums = append(nums, v)
	}
	out.Score, out.MaxScore = nums[0], nums[1]
	if len(nums) == 3 {
		out.DurationSeconds = nums[2]
	}
	return playCommand{kind: cmdOutcome, outcome: out}
}

func printReport(out io.Writer, r *model.ExamReport) {
	fmt.Fprintf(out, "\n=== Report %s ===\n", r.SessionID)
	fmt.Fprintf(out, "Ability index: %d (%s)\n", r.AbilityIndex, r.BandLabel)
	fmt.Fprintf(out, "Score:         %d%%  passed %d, failed %d\n", r.Percentage, r.PassCount, r.FailCount)
	fmt.Fprintf(out, "Mean level:    %.2f\n", r.MeanLevel)
	fmt.Fprintf(out, "Estimate:      %.2f\n", r.AbilityEstimate)
	for _, c := range r.Categories {
		fmt.Fprintf(out, "  %-10s %d/%d (%d%%)\n", c.Category, c.Passed, c.Attempted, c.Percentage)
	}
}
