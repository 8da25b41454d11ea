package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allusionapp/allusion-server/internal/domain"
)

const collectionColumns = `id, name, date_added, color, tags, sub_collections`

func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.TagCollection, error) {
	var (
		c              domain.TagCollection
		dateAdded      string
		color          sql.NullString
		tags, children string
	)

	if err := scanner.Scan(&c.ID, &c.Name, &dateAdded, &color, &tags, &children); err != nil {
		return nil, err
	}

	var err error
	if c.DateAdded, err = parseTime(dateAdded); err != nil {
		return nil, err
	}
	if c.Tags, err = decodeIDs(tags); err != nil {
		return nil, fmt.Errorf("collection %s tags: %w", c.ID, err)
	}
	if c.SubCollections, err = decodeIDs(children); err != nil {
		return nil, fmt.Errorf("collection %s sub collections: %w", c.ID, err)
	}
	c.Color = color.String

	return &c, nil
}

// ListCollections returns every stored collection. Order is unspecified;
// the hierarchy is defined by the member lists.
func (s *Store) ListCollections(ctx context.Context) ([]*domain.TagCollection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM tag_collections`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []*domain.TagCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ReplaceCollections makes the stored hierarchy equal to cols in one
// transaction: rows not in cols are deleted, the rest are upserted.
func (s *Store) ReplaceCollections(ctx context.Context, cols []*domain.TagCollection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	keep := make([]string, 0, len(cols))
	for _, c := range cols {
		keep = append(keep, c.ID)
	}

	if len(keep) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tag_collections`); err != nil {
			return fmt.Errorf("clear collections: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx,
		`DELETE FROM tag_collections WHERE id NOT IN (`+placeholders(len(keep))+`)`,
		stringArgs(keep)...); err != nil {
		return fmt.Errorf("prune collections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tag_collections (`+collectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			tags = excluded.tags,
			sub_collections = excluded.sub_collections`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cols {
		tags, err := encodeIDs(c.Tags)
		if err != nil {
			return err
		}
		children, err := encodeIDs(c.SubCollections)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Name, formatTime(c.DateAdded), nullString(c.Color), tags, children,
		); err != nil {
			return fmt.Errorf("upsert collection %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}
