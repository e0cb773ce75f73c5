// Package sqlite implements the catalog store contracts on SQLite.
//
// Pieces are stored one row each with their canonical shape packed into
// width, height and bits columns. A single catalog_meta row records the
// version of the catalog currently imported.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/renovation-rumble/internal/platform/grpc/pagination"
	"github.com/louisbranch/renovation-rumble/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage/filter"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage/sqlite/migrations"
)

// PageSizes bounds ListPieces page sizes.
var PageSizes = pagination.PageSizeConfig{Default: 50, Max: 200}

// Store is a SQLite-backed piece catalog.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var (
	_ storage.PieceStore   = (*Store)(nil)
	_ storage.CatalogStore = (*Store)(nil)
)

// Open opens the catalog database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.CatalogFS, "catalog"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ReplaceCatalog deletes every stored piece and writes cat in one
// transaction.
func (s *Store) ReplaceCatalog(ctx context.Context, cat *catalog.Catalog) error {
	if cat == nil {
		return fmt.Errorf("catalog is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pieces`); err != nil {
		return fmt.Errorf("clear pieces: %w", err)
	}
	insert, err := tx.PrepareContext(ctx, `INSERT INTO pieces (piece_id, style_id, width, height, bits, cell_count) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()
	for _, p := range cat.Pieces() {
		m := p.Contents
		// SQLite integers are signed; the shape keeps all 64 bits.
		if _, err := insert.ExecContext(ctx, int64(p.ID), int64(p.StyleID), int64(m.Width()), int64(m.Height()), int64(m.Bits()), int64(m.Count())); err != nil {
			return fmt.Errorf("insert piece %d: %w", p.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_meta (id, version, piece_count, imported_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET version = excluded.version, piece_count = excluded.piece_count, imported_at = excluded.imported_at`,
		cat.Version(), cat.Len(), s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("write catalog meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// LoadCatalog rebuilds the stored catalog.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var version int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT version FROM catalog_meta WHERE id = 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrCatalogEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog meta: %w", err)
	}
	pieces, err := s.queryPieces(ctx, `SELECT piece_id, style_id, width, height, bits FROM pieces ORDER BY piece_id`)
	if err != nil {
		return nil, err
	}
	return catalog.New(version, pieces)
}

// GetPiece returns one piece or storage.ErrNotFound.
func (s *Store) GetPiece(ctx context.Context, id uint16) (catalog.Piece, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT piece_id, style_id, width, height, bits FROM pieces WHERE piece_id = ?`, int64(id))
	p, err := scanPiece(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Piece{}, storage.ErrNotFound
	}
	if err != nil {
		return catalog.Piece{}, err
	}
	return p, nil
}

// ListPieces returns a page of pieces ordered by id. Invalid filters wrap
// filter.ErrInvalidFilter and bad tokens wrap pagination.ErrInvalidPageToken.
func (s *Store) ListPieces(ctx context.Context, query storage.PieceQuery) (storage.PiecePage, error) {
	cond, err := filter.Parse(query.Filter)
	if err != nil {
		return storage.PiecePage{}, err
	}
	after, hasAfter, err := pagination.DecodeToken(query.PageToken)
	if err != nil {
		return storage.PiecePage{}, err
	}
	pageSize := pagination.ClampPageSize(query.PageSize, PageSizes)

	var where []string
	var params []any
	if !cond.IsEmpty() {
		where = append(where, cond.Clause)
		params = append(params, cond.Params...)
	}
	if hasAfter {
		where = append(where, "piece_id > ?")
		params = append(params, int64(after))
	}
	stmt := `SELECT piece_id, style_id, width, height, bits FROM pieces`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY piece_id LIMIT ?"
	params = append(params, pageSize+1)

	pieces, err := s.queryPieces(ctx, stmt, params...)
	if err != nil {
		return storage.PiecePage{}, err
	}
	page := storage.PiecePage{Pieces: pieces}
	if len(pieces) > pageSize {
		page.Pieces = pieces[:pageSize]
		page.NextPageToken = pagination.EncodeToken(uint64(page.Pieces[pageSize-1].ID))
	}
	return page, nil
}

func (s *Store) queryPieces(ctx context.Context, stmt string, args ...any) ([]catalog.Piece, error) {
	rows, err := s.sqlDB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query pieces: %w", err)
	}
	defer rows.Close()
	var out []catalog.Piece
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pieces: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPiece(row scanner) (catalog.Piece, error) {
	var id, style, width, height, bits int64
	if err := row.Scan(&id, &style, &width, &height, &bits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Piece{}, err
		}
		return catalog.Piece{}, fmt.Errorf("scan piece: %w", err)
	}
	contents, err := grid.NewBitMatrix(uint8(width), uint8(height), uint64(bits))
	if err != nil {
		return catalog.Piece{}, fmt.Errorf("piece %d contents: %w", id, err)
	}
	return catalog.Piece{ID: uint16(id), StyleID: uint16(style), Contents: contents}, nil
}
