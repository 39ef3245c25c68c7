// Package sqlite implements the puzzle library on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mxchen/turtlesoup-server/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS puzzles (
	id             INTEGER PRIMARY KEY,
	title          TEXT NOT NULL,
	content        TEXT NOT NULL DEFAULT '',
	answer         TEXT NOT NULL DEFAULT '',
	content_images TEXT NOT NULL DEFAULT '[]',
	answer_images  TEXT NOT NULL DEFAULT '[]'
);
`

// Library implements core.PuzzleLibrary.
type Library struct {
	db *sql.DB
}

// New opens (or creates) the library database and applies the schema.
func New(dbPath string) (*Library, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Library{db: db}, nil
}

// Close closes the database connection.
func (l *Library) Close() error {
	return l.db.Close()
}

// SeedFromJSON imports puzzles from a JSON array file when the library is
// empty. A missing seed file is not an error.
func (l *Library) SeedFromJSON(ctx context.Context, path string) error {
	var count int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM puzzles`).Scan(&count); err != nil {
		return fmt.Errorf("count puzzles: %w", err)
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read seed: %w", err)
	}

	var puzzles []*core.Puzzle
	if err := json.Unmarshal(data, &puzzles); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for i, p := range puzzles {
		if p.ID == 0 {
			p.ID = int64(i + 1)
		}
		if err := l.Add(ctx, p); err != nil {
			return fmt.Errorf("seed puzzle %q: %w", p.Title, err)
		}
	}
	return nil
}

// List returns all puzzles ordered by id.
func (l *Library) List(ctx context.Context) ([]*core.Puzzle, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, title, content, answer, content_images, answer_images
		FROM puzzles ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	defer rows.Close()

	puzzles := make([]*core.Puzzle, 0)
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, err
		}
		puzzles = append(puzzles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate puzzles: %w", err)
	}
	return puzzles, nil
}

// Get returns the puzzle with the given id, or nil when absent.
func (l *Library) Get(ctx context.Context, id int64) (*core.Puzzle, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, title, content, answer, content_images, answer_images
		FROM puzzles WHERE id = ?
	`, id)
	p, err := scanPuzzle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Add inserts a puzzle under its pre-assigned id.
func (l *Library) Add(ctx context.Context, p *core.Puzzle) error {
	contentImages, answerImages, err := encodeImages(p)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO puzzles (id, title, content, answer, content_images, answer_images)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Content, p.Answer, contentImages, answerImages)
	if err != nil {
		return fmt.Errorf("insert puzzle: %w", err)
	}
	return nil
}

// Update rewrites an existing puzzle in place. Updating an id that is not in
// the library is a no-op.
func (l *Library) Update(ctx context.Context, p *core.Puzzle) error {
	contentImages, answerImages, err := encodeImages(p)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `
		UPDATE puzzles
		SET title = ?, content = ?, answer = ?, content_images = ?, answer_images = ?
		WHERE id = ?
	`, p.Title, p.Content, p.Answer, contentImages, answerImages, p.ID)
	if err != nil {
		return fmt.Errorf("update puzzle: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(row rowScanner) (*core.Puzzle, error) {
	var p core.Puzzle
	var contentImages, answerImages string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Answer, &contentImages, &answerImages); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan puzzle: %w", err)
	}
	if err := json.Unmarshal([]byte(contentImages), &p.ContentImages); err != nil {
		return nil, fmt.Errorf("decode content images: %w", err)
	}
	if err := json.Unmarshal([]byte(answerImages), &p.AnswerImages); err != nil {
		return nil, fmt.Errorf("decode answer images: %w", err)
	}
	return &p, nil
}

func encodeImages(p *core.Puzzle) (string, string, error) {
	contentImages := p.ContentImages
	if contentImages == nil {
		contentImages = []string{}
	}
	answerImages := p.AnswerImages
	if answerImages == nil {
		answerImages = []string{}
	}
	ci, err := json.Marshal(contentImages)
	if err != nil {
		return "", "", fmt.Errorf("encode content images: %w", err)
	}
	ai, err := json.Marshal(answerImages)
	if err != nil {
		return "", "", fmt.Errorf("encode answer images: %w", err)
	}
	return string(ci), string(ai), nil
}
