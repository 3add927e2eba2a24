package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	// modernc.org/sqlite driver name is "sqlite".
	"modernc.org/sqlite"

	"github.com/vyrodovalexey/todolist/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS todos (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL
);`

// SQLiteStore keeps items in a single SQLite table. The autoincrement
// seq column provides the natural (insertion) order.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// WAL enables one writer + many readers; busy_timeout avoids spurious "database is locked".
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// matchFunc is a SQL function applying Filter.Match. SQLite's own lower()
// folds ASCII only.
const matchFunc = "todo_match"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(matchFunc, 2, sqlMatch)
}

// sqlMatch implements todo_match(text, needle) for filterClause.
func sqlMatch(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	text, needle := sqlText(args[0]), sqlText(args[1])
	if (Filter{Text: needle}).Match(text) {
		return int64(1), nil
	}
	return int64(0), nil
}

func sqlText(v driver.Value) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// filterClause returns the WHERE clause and its arguments for filter.
func filterClause(filter Filter) (string, []any) {
	if filter.Text == "" {
		return "", nil
	}
	return " WHERE " + matchFunc + "(text, ?)", []any{filter.Text}
}

// Find returns the matching items ordered by insertion.
func (s *SQLiteStore) Find(ctx context.Context, filter Filter, w Window) ([]model.Item, error) {
	where, args := filterClause(filter)

	limit := w.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	q := `SELECT id, text FROM todos` + where + ` ORDER BY seq LIMIT ? OFFSET ?`
	args = append(args, limit, max(w.Skip, 0))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Text); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	return items, nil
}

// Count returns the number of matching rows.
func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := filterClause(filter)

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Insert adds a row with a generated ID.
func (s *SQLiteStore) Insert(ctx context.Context, text string) (*model.Item, error) {
	item := model.Item{ID: newID(), Text: text}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO todos(id, text) VALUES(?, ?)`, item.ID, item.Text); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &item, nil
}

// UpdateByID replaces the text of the row with the given ID.
func (s *SQLiteStore) UpdateByID(ctx context.Context, id, text string) (*model.Item, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	var item model.Item
	err := s.db.QueryRowContext(ctx,
		`UPDATE todos SET text = ? WHERE id = ? RETURNING id, text`, text, id,
	).Scan(&item.ID, &item.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &item, nil
}

// DeleteByID removes the row with the given ID, if any.
func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
