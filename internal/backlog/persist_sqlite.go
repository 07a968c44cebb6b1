package backlog

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const (
	TableBacklog = "backlog"
	TablePause   = "backlog_pause"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// SQLitePersister keeps one ordered backlog per table.
type SQLitePersister struct {
	db    *sql.DB
	table string
}

func NewSQLitePersister(ctx context.Context, db *sql.DB, table string) (*SQLitePersister, error) {
	if db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL,
		difficulty INTEGER NOT NULL,
		status TEXT NOT NULL,
		voting_mode TEXT NOT NULL,
		expected_participants TEXT NOT NULL DEFAULT '[]',
		estimate TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return &SQLitePersister{db: db, table: table}, nil
}

func (p *SQLitePersister) Load(ctx context.Context) ([]domain.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, description, priority, difficulty, status,
		voting_mode, expected_participants, estimate FROM `+p.table+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var (
			r            record
			id, pr, diff int64
			participants string
		)
		if err := rows.Scan(&id, &r.Name, &r.Description, &pr, &diff, &r.Status,
			&r.VotingMode, &participants, &r.Estimate); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.table, err)
		}
		r.ID, r.Priority, r.Difficulty = FlexInt(id), FlexInt(pr), FlexInt(diff)
		if err := json.Unmarshal([]byte(participants), &r.ExpectedParticipants); err != nil {
			return nil, fmt.Errorf("decode participants of feature %d: %w", id, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", p.table, err)
	}
	return fromRecords(records)
}

// Save rewrites the table in one transaction, preserving list order.
func (p *SQLitePersister) Save(ctx context.Context, features []domain.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+p.table); err != nil {
		return fmt.Errorf("clear %s: %w", p.table, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+p.table+` (id, position, name, description,
		priority, difficulty, status, voting_mode, expected_participants, estimate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for pos, r := range toRecords(features) {
		participants, err := json.Marshal(r.ExpectedParticipants)
		if err != nil {
			return fmt.Errorf("encode participants of feature %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, int(r.ID), pos, r.Name, r.Description, int(r.Priority),
			int(r.Difficulty), r.Status, r.VotingMode, string(participants), r.Estimate); err != nil {
			return fmt.Errorf("insert feature %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
