package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vesica/internal"
	"github.com/starford/vesica/internal/apperr"
	"github.com/starford/vesica/internal/mcpserver"
	"github.com/starford/vesica/internal/prompt"
	pkgconfig "github.com/starford/vesica/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	cfg := internal.NewDefaultConfig()

	// An explicitly given config file must exist; the default path is
	// optional and falls back to built-in defaults.
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// sessionLogger logs to stderr so human-facing and MCP stdout stays clean.
func sessionLogger(cfg *internal.Config) *slog.Logger {
	return internal.NewLogger(cfg, os.Stderr)
}

func runRecord(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	p := prompt.New(os.Stdin, os.Stdout)
	for {
		fields, err := p.Collect()
		if err != nil {
			return err
		}
		m, err := svc.Record(ctx, fields)
		if err != nil {
			// Per-record failure: report and let the operator decide.
			p.ReportError(err)
		} else {
			p.ReportAdded(m)
		}

		again, err := p.Confirm("Add another measurement?")
		if err != nil {
			return err
		}
		if !again {
			break
		}
	}

	if svc.Pending() == 0 {
		fmt.Println("Nothing to save.")
		return nil
	}

	save, err := p.Confirm(fmt.Sprintf("Save %d entries to %s?", svc.Pending(), cfg.Ledger.Path))
	if err != nil {
		return err
	}
	if !save {
		n := svc.Pending()
		svc.Clear()
		fmt.Printf("Discarded %d entries.\n", n)
		return nil
	}

	total, err := svc.Flush(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d entries to %s (%d rows total)\n", svc.Pending(), cfg.Ledger.Path, total)
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: import <file.csv>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	recs, rowErrs, err := svc.Import(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrFileNotFound) {
			// Recoverable: report and finish with an empty result.
			fmt.Printf("%s %v\n", color.New(color.FgRed).Sprint("✗"), err)
			return nil
		}
		return err
	}

	for _, re := range rowErrs {
		fmt.Printf("%s skipped %v\n", color.New(color.FgYellow).Sprint("!"), re)
	}
	fmt.Printf("%s imported %d measurements from %s\n",
		color.New(color.FgGreen).Sprint("✓"), len(recs), path)

	if len(recs) == 0 {
		return nil
	}
	total, err := svc.Flush(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Ledger now holds %d rows (%s)\n", total, cfg.Ledger.Path)
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	header, rows, err := svc.Ledger()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: search <query>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	hits, err := svc.Search(query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "row\tpatient\ttime\tmatch")
	for _, h := range hits {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", h.Seq, h.PatientID, h.TakenAt, h.Snippet)
	}
	return w.Flush()
}

func runPatient(ctx context.Context, cmd *cli.Command) error {
	patientID := cmd.Args().First()
	if patientID == "" {
		return fmt.Errorf("usage: patient <id>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := svc.Patient(patientID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("no measurements for %s\n", patientID)
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "row\ttime\tvolume_ml\tcontext\tnotes")
	for _, r := range rows {
		vol := ""
		if r.CalculatedVolumeML.Valid {
			vol = fmt.Sprintf("%.1f", r.CalculatedVolumeML.Float64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.TakenAt, vol, r.Context, r.Notes)
	}
	return w.Flush()
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Run(ctx, internal.WithConfig(cfg))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP transport; keep logs on stderr.
	svc, db, err := internal.OpenSession(cfg, sessionLogger(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "vesica",
		Usage: "Bladder-ultrasound measurement recorder with CSV ledger, batch import, and searchable index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "record",
				Usage:  "Interactively record measurements, then save them to the ledger",
				Action: runRecord,
			},
			{
				Name:      "import",
				Usage:     "Import a CSV batch file and append it to the ledger",
				ArgsUsage: "<file.csv>",
				Action:    runImport,
			},
			{
				Name:   "list",
				Usage:  "Print the persisted measurement table",
				Action: runList,
			},
			{
				Name:      "search",
				Usage:     "Search persisted measurements by patient, context, or notes",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of hits", Value: 20},
				},
				Action: runSearch,
			},
			{
				Name:      "patient",
				Usage:     "List persisted measurements for one patient",
				ArgsUsage: "<id>",
				Action:    runPatient,
			},
			{
				Name:   "watch",
				Usage:  "Watch the inbox directory and import dropped batch files",
				Action: runWatch,
			},
			{
				Name:   "mcp",
				Usage:  "Serve measurement tools over MCP stdio transport",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
