package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"fpscan/internal/access"
	"fpscan/internal/classify"
	"fpscan/internal/config"
	"fpscan/internal/correlate"
	"fpscan/internal/export"
	"fpscan/internal/fpstats"
	"fpscan/internal/iox"
	"fpscan/internal/knownbots"
	"fpscan/internal/lookup"
	"fpscan/internal/modsec"
	"fpscan/internal/report"
)

var version = "v1.0"

func main() {
	errorLog := flag.String("error-log", "", "Apache/ModSecurity error log path ('-' = stdin, .gz ok)")
	auditLog := flag.String("audit-log", "", "Optional ModSecurity serial-audit JSONL path")
	accessLog := flag.String("access-log", "", "Access log path (combined format)")
	outPath := flag.String("out", "-", "Report output path (default stdout)")
	jsonPath := flag.String("json", "", "Optional JSON summary output path")
	which := flag.String("report", "all", "Report: all | falsepos | activity | issues")

	nslookup := flag.Bool("nslookup", false, "Enable reverse DNS enrichment")
	workers := flag.Int("workers", 0, "Parallel DNS workers (default from env, 15)")
	timeout := flag.Duration("timeout", 0, "Per-lookup timeout (default from env, 8s)")
	botsPath := flag.String("bots", "", "Known-crawler PTR rules file (.json or .yaml)")

	dbExport := flag.Bool("db-export", false, "Write per-rule summary rows to MySQL (.env config)")
	showPlan := flag.Bool("plan", false, "Show plan and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if *workers == 0 {
		*workers = cfg.LookupWorkers
	}
	if *timeout == 0 {
		*timeout = cfg.LookupTimeout
	}
	if *botsPath == "" {
		*botsPath = cfg.BotsPath
	}

	if *showPlan {
		fmt.Printf("==== fpscan %s Execution Plan ====\n", version)
		fmt.Printf("Error log        : %s\n", *errorLog)
		fmt.Printf("Audit log        : %s\n", *auditLog)
		fmt.Printf("Access log       : %s\n", *accessLog)
		fmt.Printf("Report           : %s -> %s\n", *which, *outPath)
		fmt.Printf("JSON summary     : %s\n", *jsonPath)
		fmt.Printf("Reverse DNS      : %v (workers=%d timeout=%s)\n", *nslookup, *workers, *timeout)
		fmt.Printf("Bots rules       : %s\n", *botsPath)
		fmt.Printf("DB export        : %v\n", *dbExport)
		return
	}

	if *errorLog == "" && *auditLog == "" {
		log.Fatalf("--error-log or --audit-log is required")
	}

	start := time.Now()
	defer func() {
		log.Printf("⏱️ completed in %v", time.Since(start))
	}()

	ctx := context.Background()
	if err := run(ctx, cfg, *errorLog, *auditLog, *accessLog, *outPath, *jsonPath,
		*which, *nslookup, *workers, *timeout, *botsPath, *dbExport); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config,
	errorLog, auditLog, accessLog, outPath, jsonPath, which string,
	nslookup bool, workers int, timeout time.Duration, botsPath string, dbExport bool) error {

	// ---------- parse inputs ----------
	var entries []modsec.Entry
	if errorLog != "" {
		got, stats, err := parseErrorLog(errorLog)
		if err != nil {
			return fmt.Errorf("error log: %w", err)
		}
		log.Printf("error log: lines=%d parsed=%d skipped=%d", stats.Lines, stats.Parsed, stats.Skipped)
		entries = append(entries, got...)
	}
	if auditLog != "" {
		got, stats, err := parseAuditLog(auditLog)
		if err != nil {
			return fmt.Errorf("audit log: %w", err)
		}
		log.Printf("audit log: lines=%d parsed=%d skipped=%d", stats.Lines, stats.Parsed, stats.Skipped)
		entries = append(entries, got...)
	}

	var logs []access.Entry
	if accessLog != "" {
		var stats access.Stats
		var err error
		logs, stats, err = parseAccessLog(accessLog)
		if err != nil {
			return fmt.Errorf("access log: %w", err)
		}
		log.Printf("access log: lines=%d parsed=%d skipped=%d", stats.Lines, stats.Parsed, stats.Skipped)
	}

	rules := modsec.Rules(entries)
	issues, hostname := classify.Split(entries)
	log.Printf("classified: rules=%d issues=%d hostname=%q", len(rules), len(issues), hostname)

	// ---------- aggregate ----------
	groups, err := fpstats.Aggregate(rules)
	if err != nil {
		return err
	}

	var cache *lookup.Cache
	var peek report.PeekFunc
	if nslookup {
		cache = lookup.New(nil, timeout)
		peek = cache.Peek
		log.Printf("reverse DNS enabled: %d workers, %s timeout", workers, timeout)
	}

	profiles := correlate.Correlate(ctx, rules, logs, correlate.Options{
		Enrich:  nslookup,
		Cache:   cache,
		Workers: workers,
	})
	byRule := correlate.GroupByRule(profiles, rules)
	if nslookup {
		log.Printf("resolved %d unique IPs", cache.Len())
	}

	bots := knownbots.Defaults()
	if botsPath != "" {
		if loaded, err := knownbots.Load(botsPath); err != nil {
			log.Printf("warning: crawler rules load failed: %v (using defaults)", err)
		} else {
			bots = loaded
		}
	}

	// ---------- render ----------
	out, err := iox.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	header := color.New(color.FgCyan, color.Bold)
	section := func(title, body string) {
		header.Fprintf(out, "===== %s =====\n", title)
		fmt.Fprintln(out, body)
	}

	switch which {
	case "all":
		section("Overview", report.Overview(groups, hostname))
		section("False positives", report.FalsePositives(groups, peek))
		section("Activity", report.Activity(byRule, bots))
		section("Issues", report.Issues(issues, hostname))
	case "falsepos":
		section("Overview", report.Overview(groups, hostname))
		section("False positives", report.FalsePositives(groups, peek))
	case "activity":
		section("Activity", report.Activity(byRule, bots))
	case "issues":
		section("Issues", report.Issues(issues, hostname))
	default:
		return fmt.Errorf("unknown report: %s", which)
	}

	// ---------- optional exports ----------
	if jsonPath != "" {
		data, err := report.MarshalSummary(report.BuildSummary(groups, hostname))
		if err != nil {
			return fmt.Errorf("json summary: %w", err)
		}
		if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write json summary: %w", err)
		}
		log.Printf("✅ JSON summary written to %s", jsonPath)
	}

	if dbExport {
		db, err := export.Open(cfg)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()

		dbCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
		if err := export.EnsureSchema(dbCtx, db); err != nil {
			return fmt.Errorf("db schema: %w", err)
		}
		if err := export.WriteSummary(dbCtx, db, groups, hostname, time.Now()); err != nil {
			return fmt.Errorf("db export: %w", err)
		}
		log.Printf("✅ summary exported to MySQL (%d rules)", groups.Len())
	}

	return nil
}

func parseErrorLog(path string) ([]modsec.Entry, modsec.Stats, error) {
	in, err := iox.Open(path)
	if err != nil {
		return nil, modsec.Stats{}, fmt.Errorf("open: %w", err)
	}
	defer in.Close()
	return modsec.ParseErrorLog(in)
}

func parseAuditLog(path string) ([]modsec.Entry, modsec.Stats, error) {
	in, err := iox.Open(path)
	if err != nil {
		return nil, modsec.Stats{}, fmt.Errorf("open: %w", err)
	}
	defer in.Close()
	return modsec.ParseAuditJSONL(in)
}

func parseAccessLog(path string) ([]access.Entry, access.Stats, error) {
	in, err := iox.Open(path)
	if err != nil {
		return nil, access.Stats{}, fmt.Errorf("open: %w", err)
	}
	defer in.Close()
	return access.Parse(in)
}
