package fim

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS baseline (
	path   TEXT PRIMARY KEY,
	digest TEXT NOT NULL
);`
	sqliteInsert = `INSERT OR REPLACE INTO baseline (path, digest) VALUES (?, ?);`
	sqliteSelect = `SELECT path, digest FROM baseline;`
)

// SQLiteStore 把基线保存在SQLite数据库中
//
// 语义与 TextStore 相同：Save 在一个事务里整体替换，Load 在数据库文件不存在时返回 ErrBaselineNotFound。
type SQLiteStore struct {
	path    string
	exclude *Exclusions
}

// NewSQLiteStore 创建SQLite基线存储
func NewSQLiteStore(path string, exclude *Exclusions) *SQLiteStore {
	return &SQLiteStore{path: path, exclude: exclude}
}

// Path 返回数据库文件路径
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open baseline db %s: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create baseline table: %w", err)
	}
	return db, nil
}

// Save 用给定映射替换数据库中的全部记录
func (s *SQLiteStore) Save(b Baseline) (err error) {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM baseline;`); err != nil {
		return fmt.Errorf("clear baseline: %w", err)
	}
	stmt, err := tx.Prepare(sqliteInsert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range b.Paths() {
		if s.exclude.IsSelf(p) {
			continue
		}
		abs, aerr := absPath(p)
		if aerr != nil {
			return aerr
		}
		if _, err = stmt.Exec(abs, b[p]); err != nil {
			return fmt.Errorf("insert %s: %w", abs, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load 读取全部记录
func (s *SQLiteStore) Load() (Baseline, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBaselineNotFound
	} else if err != nil {
		return nil, fmt.Errorf("stat baseline db %s: %w", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(sqliteSelect)
	if err != nil {
		return nil, fmt.Errorf("query baseline: %w", err)
	}
	defer rows.Close()

	b := make(Baseline)
	for rows.Next() {
		var path, digest string
		if err := rows.Scan(&path, &digest); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		abs, err := absPath(path)
		if err != nil {
			return nil, err
		}
		b[abs] = digest
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baseline: %w", err)
	}
	return b, nil
}
