// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// to distinguish between different failure scenarios without inspecting
// driver errors themselves.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers inspected by classify.
const (
	mysqlErrDupEntry         = 1062
	mysqlErrNoReferencedRow  = 1216
	mysqlErrNoReferencedRow2 = 1452
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// key (users.email, themes.name, token_values(token_id, theme_id)).
var ErrDuplicate = errors.New("duplicate entry")

// ErrForeignKey is returned when a parent_id, group_id, token_id or theme_id
// references a row that does not exist.
var ErrForeignKey = errors.New("referenced row not found")

// classify maps driver errors onto the sentinels above, keeping the original
// error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDupEntry:
			return fmt.Errorf("%w: %s", ErrDuplicate, myErr.Message)
		case mysqlErrNoReferencedRow, mysqlErrNoReferencedRow2:
			return fmt.Errorf("%w: %s", ErrForeignKey, myErr.Message)
		}
	}
	return err
}
