package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/gocql/gocql"
)

var tableName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// Scylla stores each key as one row of a two-column table.
type Scylla struct {
	session *gocql.Session
	table   string
}

var _ Backend = (*Scylla)(nil)

// NewScylla creates table when it does not exist yet.
func NewScylla(ctx context.Context, session *gocql.Session, table string) (*Scylla, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid scylla table name %q", table)
	}
	s := &Scylla{session: session, table: table}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key text PRIMARY KEY, value blob)`, table)
	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

func (s *Scylla) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.session.Query(
		fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table), key,
	).WithContext(ctx).Scan(&value)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Scylla) Put(ctx context.Context, key string, value []byte) error {
	return s.session.Query(
		fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)`, s.table), key, value,
	).WithContext(ctx).Exec()
}

func (s *Scylla) Delete(ctx context.Context, key string) error {
	return s.session.Query(
		fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key,
	).WithContext(ctx).Exec()
}

func (s *Scylla) Close() error {
	s.session.Close()
	return nil
}
