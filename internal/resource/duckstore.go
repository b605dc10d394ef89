package resource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/rpgmapper/backend/internal/models"
)

// DuckOptions tunes the DuckDB connection of a DuckStore.
type DuckOptions struct {
	Threads     int
	MemoryLimit string // e.g. "256MB"
}

// DuckStore implements Store on a persistent DuckDB file.
type DuckStore struct {
	db     *sql.DB
	dbPath string

	// serializes writers so Import never interleaves with Put
	writeMu sync.Mutex
}

// OpenDuckStore opens or creates the resource database at dbPath.
func OpenDuckStore(dbPath string, opts DuckOptions) (*DuckStore, error) {
	fmt.Printf("[DuckResources] Opening database at: %s\n", dbPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating resource directory: %w", err)
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		var pragmas []string
		if opts.MemoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
		}
		if opts.Threads > 0 {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
		}
		pragmas = append(pragmas, "PRAGMA enable_progress_bar=false")
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[DuckResources] Pragma warning: %v\n", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS resources (
			path       VARCHAR PRIMARY KEY,
			mime_type  VARCHAR NOT NULL,
			data       BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM resources").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}
	fmt.Printf("[DuckResources] Ready with %d resources\n", count)

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

func (s *DuckStore) Put(ctx context.Context, p string, data []byte, mimeType string) (models.ResourceInfo, error) {
	r, err := prepare(p, data, mimeType)
	if err != nil {
		return models.ResourceInfo{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO resources (path, mime_type, data, updated_at) VALUES (?, ?, ?, ?)",
		r.Path, r.MimeType, r.Data, r.UpdatedAt)
	if err != nil {
		return models.ResourceInfo{}, fmt.Errorf("storing %s: %w", r.Path, err)
	}
	return r.Info(), nil
}

func (s *DuckStore) Get(ctx context.Context, p string) (Resource, error) {
	key, err := NormalizePath(p)
	if err != nil {
		return Resource{}, err
	}
	r := Resource{Path: key}
	err = s.db.QueryRowContext(ctx,
		"SELECT mime_type, data, updated_at FROM resources WHERE path = ?", key).
		Scan(&r.MimeType, &r.Data, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Resource{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Resource{}, fmt.Errorf("loading %s: %w", key, err)
	}
	return r, nil
}

func (s *DuckStore) List(ctx context.Context, prefix string) ([]models.ResourceInfo, error) {
	pk, err := prefixKey(prefix)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, mime_type, octet_length(data), updated_at FROM resources WHERE starts_with(path, ?) ORDER BY path", pk)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var list []models.ResourceInfo
	for rows.Next() {
		var info models.ResourceInfo
		if err := rows.Scan(&info.Path, &info.MimeType, &info.Size, &info.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, info)
	}
	return list, rows.Err()
}

func (s *DuckStore) Delete(ctx context.Context, p string) error {
	key, err := NormalizePath(p)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE path = ?", key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Import stores many resources at once, replacing existing paths. Rows are
// written through the DuckDB appender.
func (s *DuckStore) Import(ctx context.Context, resources []Resource) error {
	if len(resources) == 0 {
		return nil
	}
	prepared := make([]Resource, 0, len(resources))
	for _, r := range resources {
		pr, err := prepare(r.Path, r.Data, r.MimeType)
		if err != nil {
			return err
		}
		prepared = append(prepared, pr)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	for _, r := range prepared {
		if _, err := conn.ExecContext(ctx, "DELETE FROM resources WHERE path = ?", r.Path); err != nil {
			return fmt.Errorf("replacing %s: %w", r.Path, err)
		}
	}

	err = conn.Raw(func(driverConn any) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "resources")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, r := range prepared {
			if err := appender.AppendRow(r.Path, r.MimeType, r.Data, r.UpdatedAt); err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	fmt.Printf("[DuckResources] Imported %d resources in %v\n", len(prepared), time.Since(start))
	return nil
}

// Close closes the database. The file is kept.
func (s *DuckStore) Close() error {
	if s.db == nil {
		return nil
	}
	fmt.Printf("[DuckResources] Closing %s\n", s.dbPath)
	return s.db.Close()
}
