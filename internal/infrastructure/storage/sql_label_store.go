package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"weld-inspector/internal/domain/entity"
	"weld-inspector/internal/domain/port"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS labeled_examples (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	image_name  TEXT NOT NULL,
	x           REAL,
	y           REAL,
	width       REAL,
	height      REAL,
	defect_type TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS labeled_examples (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	image_name  VARCHAR(255) NOT NULL,
	x           DOUBLE NULL,
	y           DOUBLE NULL,
	width       DOUBLE NULL,
	height      DOUBLE NULL,
	defect_type VARCHAR(255) NOT NULL,
	created_at  VARCHAR(64) NOT NULL
) CHARACTER SET utf8mb4`

const insertLabelSQL = `INSERT INTO labeled_examples (image_name, x, y, width, height, defect_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// SQLLabelStore хранит размеченные примеры в SQL-таблице, строки только добавляются.
type SQLLabelStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// NewSQLiteLabelStore открывает SQLite-базу и создаёт таблицу.
func NewSQLiteLabelStore(path string) (*SQLLabelStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLLabelStore{db: db, driver: "sqlite", now: time.Now}, nil
}

// NewMySQLLabelStore подключается к MySQL и создаёт таблицу.
func NewMySQLLabelStore(dsn string) (*SQLLabelStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if _, err := db.Exec(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLLabelStore{db: db, driver: "mysql", now: time.Now}, nil
}

// Driver возвращает имя SQL-драйвера
func (s *SQLLabelStore) Driver() string {
	return s.driver
}

// Append вставляет все строки в одной транзакции.
func (s *SQLLabelStore) Append(ctx context.Context, rows ...entity.LabeledExample) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if err := checkRow(row); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", entity.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertLabelSQL)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", entity.ErrStoreWrite, err)
	}
	defer stmt.Close()

	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, row := range rows {
		x, y, w, h := nullGeometry(row.Box)
		if _, err := stmt.ExecContext(ctx, row.ImageName, x, y, w, h, row.DefectType, createdAt); err != nil {
			return fmt.Errorf("%w: insert label: %v", entity.ErrStoreWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", entity.ErrStoreWrite, err)
	}
	return nil
}

// List возвращает строки в порядке вставки.
func (s *SQLLabelStore) List(ctx context.Context) ([]entity.LabeledExample, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT image_name, x, y, width, height, defect_type FROM labeled_examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rs.Close()

	rows := make([]entity.LabeledExample, 0)
	for rs.Next() {
		var (
			row        entity.LabeledExample
			x, y, w, h sql.NullFloat64
		)
		if err := rs.Scan(&row.ImageName, &x, &y, &w, &h, &row.DefectType); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		switch {
		case x.Valid && y.Valid && w.Valid && h.Valid:
			row.Box = &entity.Box{X: x.Float64, Y: y.Float64, Width: w.Float64, Height: h.Float64}
		case x.Valid || y.Valid || w.Valid || h.Valid:
			return nil, fmt.Errorf("label row for %s has partial geometry", row.ImageName)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}

	return rows, nil
}

// Close закрывает соединение с базой
func (s *SQLLabelStore) Close() error {
	return s.db.Close()
}

func nullGeometry(b *entity.Box) (x, y, w, h interface{}) {
	if b == nil {
		return nil, nil, nil, nil
	}
	return b.X, b.Y, b.Width, b.Height
}

// Проверка реализации интерфейса
var _ port.LabelStore = (*SQLLabelStore)(nil)
