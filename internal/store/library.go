package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/circleapp/photomatch/internal/match"
	"github.com/circleapp/photomatch/internal/media"
)

// Library is the persistence collaborator for the matching engine. Reads
// are bulk snapshots: one query per collection per batch, never per-item
// follow-ups.
type Library struct {
	db *DB
}

// NewLibrary creates a library over an open database.
func NewLibrary(db *DB) *Library {
	return &Library{db: db}
}

// ListMemories returns the complete memory snapshot in ascending id order.
func (l *Library) ListMemories() ([]match.Memory, error) {
	rows, err := l.db.conn.Query(`
		SELECT id, text, category, memory_date, year, person_names, created_at
		FROM memories
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []match.Memory
	for rows.Next() {
		var (
			mem      match.Memory
			category sql.NullString
			dateText sql.NullString
			year     sql.NullInt64
			names    sql.NullString
		)
		if err := rows.Scan(&mem.ID, &mem.Text, &category, &dateText, &year, &names, &mem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		mem.Category = category.String
		mem.DateText = dateText.String
		if year.Valid {
			y := int(year.Int64)
			mem.Year = &y
		}
		mem.PersonNames = splitNames(names.String)
		memories = append(memories, mem)
	}

	return memories, rows.Err()
}

// ListPhotos returns the complete media snapshot in ascending id order.
// Normalization into candidates is the caller's step; the store hands back
// raw records.
func (l *Library) ListPhotos() ([]media.RawMedia, error) {
	rows, err := l.db.conn.Query(`
		SELECT id, filename, title, description, year, people, file_type, captured_at, created_at
		FROM media
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var records []media.RawMedia
	for rows.Next() {
		var (
			raw        media.RawMedia
			title      sql.NullString
			desc       sql.NullString
			year       sql.NullInt64
			people     sql.NullString
			fileType   string
			capturedAt sql.NullTime
		)
		if err := rows.Scan(&raw.ID, &raw.Filename, &title, &desc, &year, &people, &fileType, &capturedAt, &raw.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		raw.Title = title.String
		raw.Description = desc.String
		if year.Valid {
			y := int(year.Int64)
			raw.TaggedYear = &y
		}
		raw.People = splitNames(people.String)
		raw.FileType = media.FileType(fileType)
		if capturedAt.Valid {
			t := capturedAt.Time
			raw.CapturedAt = &t
		}
		raw.ModifiedAt = raw.CreatedAt
		records = append(records, raw)
	}

	return records, rows.Err()
}

// CreateMemory inserts a memory entry and sets its generated id.
func (l *Library) CreateMemory(mem *match.Memory) error {
	if strings.TrimSpace(mem.Text) == "" {
		return fmt.Errorf("memory text must not be empty")
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}

	row := l.db.conn.QueryRow(`
		INSERT INTO memories (text, category, memory_date, year, person_names, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		mem.Text,
		nullString(mem.Category),
		nullString(mem.DateText),
		nullYear(mem.Year),
		nullString(joinNames(mem.PersonNames)),
		mem.CreatedAt,
	)
	return row.Scan(&mem.ID)
}

// CreateMedia inserts a media record and sets its generated id.
func (l *Library) CreateMedia(raw *media.RawMedia) error {
	if strings.TrimSpace(raw.Filename) == "" {
		return fmt.Errorf("media filename must not be empty")
	}
	if raw.FileType == "" {
		raw.FileType = media.Image
	}
	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = time.Now()
	}

	var capturedAt interface{}
	if raw.CapturedAt != nil {
		capturedAt = *raw.CapturedAt
	}

	row := l.db.conn.QueryRow(`
		INSERT INTO media (filename, title, description, year, people, file_type, captured_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		raw.Filename,
		nullString(raw.Title),
		nullString(raw.Description),
		nullYear(raw.TaggedYear),
		nullString(joinNames(raw.People)),
		string(raw.FileType),
		capturedAt,
		raw.CreatedAt,
	)
	return row.Scan(&raw.ID)
}

// Counts reports library sizes for the stats command.
func (l *Library) Counts() (memories, mediaItems, runs int, err error) {
	if err = l.db.conn.QueryRow("SELECT COUNT(*) FROM memories").Scan(&memories); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count memories: %w", err)
	}
	if err = l.db.conn.QueryRow("SELECT COUNT(*) FROM media").Scan(&mediaItems); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count media: %w", err)
	}
	if err = l.db.conn.QueryRow("SELECT COUNT(*) FROM match_runs").Scan(&runs); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count match runs: %w", err)
	}
	return memories, mediaItems, runs, nil
}

// GetMemory fetches one memory by id, for the suggest command.
func (l *Library) GetMemory(id int64) (*match.Memory, error) {
	row := l.db.conn.QueryRow(`
		SELECT id, text, category, memory_date, year, person_names, created_at
		FROM memories
		WHERE id = ?
	`, id)

	var (
		mem      match.Memory
		category sql.NullString
		dateText sql.NullString
		year     sql.NullInt64
		names    sql.NullString
	)
	if err := row.Scan(&mem.ID, &mem.Text, &category, &dateText, &year, &names, &mem.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("memory with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to load memory %d: %w", id, err)
	}
	mem.Category = category.String
	mem.DateText = dateText.String
	if year.Valid {
		y := int(year.Int64)
		mem.Year = &y
	}
	mem.PersonNames = splitNames(names.String)
	return &mem, nil
}

// splitNames parses the comma-separated person list used by the album app.
func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

func nullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullYear(y *int) interface{} {
	if y == nil {
		return nil
	}
	return *y
}
