// Package export writes a per-rule run summary to MySQL so triage results can
// be queried across runs. The export is write-only; nothing here ever feeds
// back into aggregation.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"fpscan/internal/config"
	"fpscan/internal/fpstats"
)

func Open(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDB,
		int(cfg.ConnectTimeout.Seconds()),
		int(cfg.QueryTimeout.Seconds()),
		int(cfg.QueryTimeout.Seconds()),
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the summary table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS fp_rule_summary (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		run_at DATETIME NOT NULL,
		hostname VARCHAR(255) NOT NULL,
		rule_id VARCHAR(32) NOT NULL,
		msg TEXT,
		hits INT NOT NULL,
		unique_ips INT NOT NULL,
		distinct_payloads INT NOT NULL,
		KEY idx_rule (rule_id),
		KEY idx_run (run_at)
	)`)
	return err
}

// WriteSummary inserts one row per rule group, chunked.
func WriteSummary(ctx context.Context, db *sql.DB, groups *fpstats.Groups, hostname string, runAt time.Time) error {
	cols := []string{"run_at", "hostname", "rule_id", "msg", "hits", "unique_ips", "distinct_payloads"}
	rows := make([][]any, 0, groups.Len())
	for _, g := range groups.All() {
		rows = append(rows, []any{
			runAt.UTC().Format("2006-01-02 15:04:05"),
			hostname,
			g.ID,
			g.Msg,
			g.Hits,
			g.UniqueIPs(),
			g.UniquePayloads(),
		})
	}
	return chunkedExec(ctx, db, "fp_rule_summary", cols, rows, 500)
}
