package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/store"
)

const fileColumns = `f.id, f.name, f.absolute_path, f.extension, f.size, f.width, f.height, f.date_added, f.comments, f.metadata`

func scanFile(scanner interface{ Scan(dest ...any) error }) (*domain.File, error) {
	var (
		f         domain.File
		dateAdded string
		metadata  sql.NullString
	)

	err := scanner.Scan(
		&f.ID,
		&f.Name,
		&f.AbsolutePath,
		&f.Extension,
		&f.Size,
		&f.Width,
		&f.Height,
		&dateAdded,
		&f.Comments,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if f.DateAdded, err = parseTime(dateAdded); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &f.Metadata); err != nil {
			return nil, fmt.Errorf("file %s metadata: %w", f.ID, err)
		}
	}
	f.Tags = []string{}

	return &f, nil
}

// UpsertFile inserts or replaces a file and its tag assignments.
// Returns store.ErrInvalidInput when a tag does not exist and
// store.ErrAlreadyExists when another file owns the same path.
func (s *Store) UpsertFile(ctx context.Context, f *domain.File) error {
	var metadata sql.NullString
	if len(f.Metadata) > 0 {
		b, err := json.Marshal(f.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (id, name, absolute_path, extension, size, width, height, date_added, comments, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			absolute_path = excluded.absolute_path,
			extension = excluded.extension,
			size = excluded.size,
			width = excluded.width,
			height = excluded.height,
			comments = excluded.comments,
			metadata = excluded.metadata`,
		f.ID, f.Name, f.AbsolutePath, f.Extension, f.Size, f.Width, f.Height,
		formatTime(f.DateAdded), f.Comments, metadata,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("file path already exists")
	}
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_tags WHERE file_id = ?`, f.ID); err != nil {
		return fmt.Errorf("clear file tags: %w", err)
	}
	for i, tagID := range f.Tags {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO file_tags (file_id, tag_id, position) VALUES (?, ?, ?)`,
			f.ID, tagID, i)
		if isForeignKeyViolation(err) {
			return store.ErrInvalidInput.WithMessage("unknown tag " + tagID)
		}
		if err != nil {
			return fmt.Errorf("insert file tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetFile retrieves a file with its tags.
// Returns store.ErrNotFound if the file does not exist.
func (s *Store) GetFile(ctx context.Context, id string) (*domain.File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files f WHERE f.id = ?`, id)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadFileTags(ctx, []*domain.File{f}); err != nil {
		return nil, err
	}
	return f, nil
}

// ListFiles returns every file ordered by date added.
func (s *Store) ListFiles(ctx context.Context) ([]*domain.File, error) {
	return s.queryFiles(ctx, `SELECT `+fileColumns+` FROM files f ORDER BY f.date_added ASC, f.id ASC`)
}

// ListFilesByTags returns files carrying at least one of tagIDs.
func (s *Store) ListFilesByTags(ctx context.Context, tagIDs []string) ([]*domain.File, error) {
	if len(tagIDs) == 0 {
		return []*domain.File{}, nil
	}
	return s.queryFiles(ctx, `
		SELECT `+fileColumns+` FROM files f
		WHERE EXISTS (
			SELECT 1 FROM file_tags ft
			WHERE ft.file_id = f.id AND ft.tag_id IN (`+placeholders(len(tagIDs))+`)
		)
		ORDER BY f.date_added ASC, f.id ASC`,
		stringArgs(tagIDs)...)
}

// ListUntaggedFiles returns files without any tag.
func (s *Store) ListUntaggedFiles(ctx context.Context) ([]*domain.File, error) {
	return s.queryFiles(ctx, `
		SELECT `+fileColumns+` FROM files f
		WHERE NOT EXISTS (SELECT 1 FROM file_tags ft WHERE ft.file_id = f.id)
		ORDER BY f.date_added ASC, f.id ASC`)
}

// CountUntaggedFiles returns the number of files without any tag.
func (s *Store) CountUntaggedFiles(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM files f
		WHERE NOT EXISTS (SELECT 1 FROM file_tags ft WHERE ft.file_id = f.id)`).Scan(&n)
	return n, err
}

// SetFileComment replaces the comment of a file.
func (s *Store) SetFileComment(ctx context.Context, id, comment string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE files SET comments = ? WHERE id = ?`, comment, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteFile removes a file and its tag assignments.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) queryFiles(ctx context.Context, query string, args ...any) ([]*domain.File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []*domain.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadFileTags(ctx, files); err != nil {
		return nil, err
	}
	return files, nil
}

// loadFileTags fills in Tags for each file in position order.
func (s *Store) loadFileTags(ctx context.Context, files []*domain.File) error {
	if len(files) == 0 {
		return nil
	}

	byID := make(map[string]*domain.File, len(files))
	ids := make([]string, 0, len(files))
	for _, f := range files {
		byID[f.ID] = f
		ids = append(ids, f.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, tag_id FROM file_tags
		WHERE file_id IN (`+placeholders(len(ids))+`)
		ORDER BY file_id, position`,
		stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("load file tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fileID, tagID string
		if err := rows.Scan(&fileID, &tagID); err != nil {
			return err
		}
		if f := byID[fileID]; f != nil {
			f.Tags = append(f.Tags, tagID)
		}
	}
	return rows.Err()
}
