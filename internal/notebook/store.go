// Package notebook persists the user's tasks and notes in SQLite and exposes
// them as tool providers. It backs the task_create, task_list, note_create,
// and note_search actions; mail and calendar providers are registered by the
// host against external services.
package notebook

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	maestrotel "github.com/helvia-io/maestro/internal/otel"
)

var tracer = maestrotel.Tracer("internal/notebook")

// Task is one tracked todo item.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`
	Priority    string    `json:"priority"`
	Completed   bool      `json:"completed"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Note is one saved note.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists tasks and notes in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the notebook database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening notebook database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		completed INTEGER NOT NULL DEFAULT 0,
		tags_json TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_completed ON tasks(user_id, completed);

	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		tags_json TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);
	`

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating notebook schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTask inserts a new task and fills in its ID and timestamps.
func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	ctx, span := tracer.Start(ctx, "notebook.create_task",
		trace.WithAttributes(attribute.String("user.id", task.UserID)))
	defer span.End()

	now := time.Now().UTC()
	task.ID = "task_" + uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Priority == "" {
		task.Priority = "medium"
	}

	tagsJSON, err := json.Marshal(emptyToSlice(task.Tags))
	if err != nil {
		return fmt.Errorf("marshaling task tags: %w", err)
	}

	query := `INSERT INTO tasks (id, user_id, title, description, due_date, priority, completed, tags_json, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.DueDate,
		task.Priority, boolToInt(task.Completed), string(tagsJSON),
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// ListTasks returns the user's tasks filtered by status ("pending",
// "completed", or "all") and priority, newest first.
func (s *Store) ListTasks(ctx context.Context, userID, status, priority string, limit int) ([]Task, error) {
	ctx, span := tracer.Start(ctx, "notebook.list_tasks",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	query := `SELECT id, user_id, title, description, due_date, priority, completed, tags_json, created_at, updated_at
	          FROM tasks WHERE user_id = ?`
	args := []interface{}{userID}

	switch status {
	case "pending":
		query += ` AND completed = 0`
	case "completed":
		query += ` AND completed = 1`
	}
	if priority != "" {
		query += ` AND priority = ?`
		args = append(args, priority)
	}

	query += ` ORDER BY created_at DESC`
	if limit <= 0 {
		limit = 20
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var (
			t         Task
			completed int
			tagsJSON  string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate,
			&t.Priority, &completed, &tagsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		t.Completed = completed != 0
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling task tags: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a task done. Returns sql.ErrNoRows semantics via found.
func (s *Store) CompleteTask(ctx context.Context, userID, taskID string) (found bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC(), taskID, userID)
	if err != nil {
		return false, fmt.Errorf("completing task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateNote inserts a new note and fills in its ID and timestamp.
func (s *Store) CreateNote(ctx context.Context, note *Note) error {
	ctx, span := tracer.Start(ctx, "notebook.create_note",
		trace.WithAttributes(attribute.String("user.id", note.UserID)))
	defer span.End()

	note.ID = "note_" + uuid.NewString()
	note.CreatedAt = time.Now().UTC()

	tagsJSON, err := json.Marshal(emptyToSlice(note.Tags))
	if err != nil {
		return fmt.Errorf("marshaling note tags: %w", err)
	}

	query := `INSERT INTO notes (id, user_id, title, content, category, tags_json, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		note.ID, note.UserID, note.Title, note.Content, note.Category,
		string(tagsJSON), note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// SearchNotes returns the user's notes whose title or content contains the
// query (case-insensitive), optionally narrowed by category and tags.
func (s *Store) SearchNotes(ctx context.Context, userID, search, category string, tags []string, limit int) ([]Note, error) {
	ctx, span := tracer.Start(ctx, "notebook.search_notes",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	query := `SELECT id, user_id, title, content, category, tags_json, created_at
	          FROM notes WHERE user_id = ?`
	args := []interface{}{userID}

	if search != "" {
		query += ` AND (title LIKE ? COLLATE NOCASE OR content LIKE ? COLLATE NOCASE)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}

	query += ` ORDER BY created_at DESC`
	if limit <= 0 {
		limit = 20
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var (
			n        Note
			tagsJSON string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Category,
			&tagsJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling note tags: %w", err)
		}
		if len(tags) > 0 && !hasAnyTag(n.Tags, tags) {
			continue
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func emptyToSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
