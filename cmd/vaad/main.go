// Command vaad is the membership/billing CLI: log in to the backend, list
// entities, build monthly statements (live or from the offline snapshot),
// and export statements to Google Sheets.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vaad/internal/api"
	"vaad/internal/config"
	"vaad/internal/core"
	applog "vaad/internal/log"
	"vaad/internal/session"
	"vaad/internal/sheets"
	"vaad/internal/statements"
	"vaad/internal/storage"
	"vaad/internal/worker"
)

const usage = `usage: vaad <command> [arguments]

commands:
  login                    log in with email and password
  logout                   clear the stored session
  whoami                   show the cached profile
  list <resource>          list all records of an entity resource
  statement [-offline] <owner> <month>  build a monthly statement (month: 2006-01)
  sync                     refresh the offline snapshot cache
  export-sheet <owner> <month>  export a statement to Google Sheets
  post-charges [month]     post missing recurring charges (default: current month)
`

func main() {
	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.SetupCLI(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	sess := session.Open(cfg.SessionFile, logger)
	if cfg.APIToken != "" {
		// Service token from the environment wins over the session file.
		sess = session.Open("", logger)
		sess.SetCredentials(cfg.APIToken, nil)
	}
	transport := api.NewTransport(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, sess, logger)

	ctx := context.Background()
	app := &cli{cfg: cfg, sess: sess, transport: transport, logger: logger}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "login":
		err = app.login(ctx)
	case "logout":
		api.NewAuth(transport, sess).Logout(ctx)
		fmt.Println("logged out")
	case "whoami":
		err = app.whoami()
	case "list":
		err = app.list(ctx, args)
	case "statement":
		err = app.statement(ctx, args)
	case "sync":
		err = app.sync(ctx)
	case "export-sheet":
		err = app.exportSheet(ctx, args)
	case "post-charges":
		err = app.postCharges(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

type cli struct {
	cfg       *config.Config
	sess      *session.Store
	transport *api.Transport
	logger    *slog.Logger
}

func (c *cli) login(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	fmt.Print("password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	profile, err := api.NewAuth(c.transport, c.sess).Login(ctx,
		strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		return err
	}
	name := profile["name"]
	if name == nil {
		name = profile["email"]
	}
	fmt.Printf("logged in as %v\n", name)
	return nil
}

func (c *cli) whoami() error {
	profile := c.sess.Profile()
	if profile == nil {
		return fmt.Errorf("not logged in")
	}
	if exp, ok := c.sess.ExpiresAt(); ok && time.Now().After(exp) {
		c.logger.Warn("Stored credential looks expired; the next request may force a re-login", "expired_at", exp)
	}
	return printJSON(profile)
}

func (c *cli) list(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: vaad list <resource>")
	}
	recs, err := api.NewEntity(c.transport, args[0]).ListAll(ctx, "", 0)
	if err != nil {
		return err
	}
	return printJSON(recs)
}

func (c *cli) statement(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("statement", flag.ContinueOnError)
	offline := fs.Bool("offline", false, "build from the local snapshot cache")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: vaad statement [-offline] <owner> <month>")
	}
	owner := fs.Arg(0)
	month, err := core.ParseMonth(fs.Arg(1))
	if err != nil {
		return err
	}

	st, err := c.buildStatement(ctx, owner, month, *offline)
	if err != nil {
		return err
	}
	printStatement(st)
	return nil
}

func (c *cli) buildStatement(ctx context.Context, owner string, month core.Month, offline bool) (*statements.Statement, error) {
	var src statements.Source
	if offline {
		store, err := storage.Open(c.cfg.SnapshotDBPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		src = statements.NewSnapshotSource(store)
	} else {
		src = statements.NewAPISource(c.transport)
	}
	return statements.NewBuilder(src, nil).Build(ctx, owner, month)
}

func (c *cli) sync(ctx context.Context) error {
	store, err := storage.Open(c.cfg.SnapshotDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := statements.Sync(ctx, c.transport, store); err != nil {
		return err
	}
	fmt.Println("snapshot refreshed")
	return nil
}

func (c *cli) exportSheet(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: vaad export-sheet <owner> <month>")
	}
	month, err := core.ParseMonth(args[1])
	if err != nil {
		return err
	}
	st, err := c.buildStatement(ctx, args[0], month, false)
	if err != nil {
		return err
	}
	exporter, err := sheets.NewFromEnv(ctx)
	if err != nil {
		return err
	}
	if err := exporter.ExportStatement(ctx, st); err != nil {
		return err
	}
	fmt.Printf("statement %s %s exported\n", st.OwnerID, st.Month)
	return nil
}

func (c *cli) postCharges(ctx context.Context, args []string) error {
	month := core.MonthOf(time.Now())
	if len(args) == 1 {
		var err error
		if month, err = core.ParseMonth(args[0]); err != nil {
			return err
		}
	} else if len(args) > 1 {
		return fmt.Errorf("usage: vaad post-charges [month]")
	}
	posted, err := worker.New(c.transport, nil, c.logger).RunOnce(ctx, month)
	if err != nil {
		return err
	}
	fmt.Printf("posted %d recurring charges for %s\n", posted, month)
	return nil
}

func printStatement(st *statements.Statement) {
	fmt.Printf("Statement for %s, %s\n", st.OwnerID, st.Month)
	for _, line := range st.Lines {
		fmt.Printf("  %s  %-8s  %10s  %s\n",
			line.Date.Format("2006-01-02"), line.Type, line.Amount.String(), line.Description)
	}
	fmt.Printf("Charges this month:  %s\n", st.Snapshot.ChargesTotal.String())
	fmt.Printf("Payments this month: %s\n", st.Snapshot.PaymentsTotal.String())
	fmt.Printf("Projected balance:   %s\n", st.Snapshot.ProjectedBalance.String())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
