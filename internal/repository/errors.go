// Package repository holds the MySQL data access layer.  Every repository
// wraps a *sql.DB for reads outside a transaction and exposes XxxTx methods
// that take the *sql.Tx handed out by database.Store.RunInTx, so one unit
// of work can span auctions, bids, offers and payments.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert violates a unique key, such as a
// second offer to the same user on one auction.
var ErrDuplicate = errors.New("duplicate row")

// mysqlDuplicateEntry is the server error number for ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
