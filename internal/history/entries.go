package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source names the command path that produced an artifact.
type Source string

const (
	SourceProduce Source = "produce"
	SourceRender  Source = "render"
	SourceRebuild Source = "rebuild"
)

// Entry is one rendered artifact.
type Entry struct {
	ID              int64
	Project         string
	Source          Source
	Storyline       string
	Strategy        string
	Path            string
	Frames          int
	ExpectedSeconds float64
	ProbedSeconds   float64
	CreatedAt       time.Time
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Project string
	Limit   int
}

// timestampLayout is fixed width so stored timestamps sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = "id, project, source, storyline, strategy, path, frames, expected_seconds, probed_seconds, created_at"

// Record appends an entry and returns it with its ID and timestamp set.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.Project) == "" {
		return Entry{}, errors.New("record history: project required")
	}
	if strings.TrimSpace(entry.Path) == "" {
		return Entry{}, errors.New("record history: artifact path required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO renders (
                project, source, storyline, strategy, path, frames,
                expected_seconds, probed_seconds, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.Project,
			string(entry.Source),
			nullableString(entry.Storyline),
			entry.Strategy,
			entry.Path,
			entry.Frames,
			entry.ExpectedSeconds,
			nullableFloat(entry.ProbedSeconds),
			entry.CreatedAt.Format(timestampLayout),
		)
		return execErr
	})
	if err != nil {
		return Entry{}, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM renders`
	var args []any
	if project := strings.TrimSpace(filter.Project); project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return entries, nil
}

// Latest returns the most recent entry for a project, or false when the
// project has none.
func (s *Store) Latest(ctx context.Context, project string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM renders WHERE project = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		project,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("latest render: %w", err)
	}
	return entry, true, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		source     string
		storyline  sql.NullString
		probed     sql.NullFloat64
		createdRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Project,
		&source,
		&storyline,
		&entry.Strategy,
		&entry.Path,
		&entry.Frames,
		&entry.ExpectedSeconds,
		&probed,
		&createdRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.Source = Source(source)
	entry.Storyline = storyline.String
	entry.ProbedSeconds = probed.Float64
	if created, err := time.Parse(timestampLayout, createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}
