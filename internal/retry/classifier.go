package retry

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// MySQL server error numbers worth retrying while connecting.
const (
	mysqlTooManyConnections = 1040
	mysqlServerShutdown     = 1053
	mysqlLockWaitTimeout    = 1205
	mysqlDeadlock           = 1213
	mysqlServerGone         = 2006
	mysqlServerLost         = 2013
)

// SQL Server error numbers worth retrying, mostly Azure SQL throttling.
var mssqlTransient = map[int32]bool{
	1205:  true, // deadlock victim
	40197: true, // service error processing request
	40501: true, // service busy
	40613: true, // database unavailable
	49918: true,
	49919: true,
	49920: true,
	10928: true, // resource limit
	10929: true,
}

// ConnectionErrorClassifier recognises transient failures from every
// supported driver plus generic network errors.
type ConnectionErrorClassifier struct{}

func NewConnectionErrorClassifier() *ConnectionErrorClassifier {
	return &ConnectionErrorClassifier{}
}

// IsTransient reports whether err is worth another attempt.
func (c *ConnectionErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlTooManyConnections, mysqlServerShutdown, mysqlLockWaitTimeout,
			mysqlDeadlock, mysqlServerGone, mysqlServerLost:
			return true
		}
		return false
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return mssqlTransient[msErr.Number]
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	return isNetworkError(err) || hasTransientMessage(err)
}

// isTransientPgCode covers SQLSTATE classes 08, 53 and 57 plus a few rollbacks.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
func isTransientPgCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"), // connection exception
		strings.HasPrefix(code, "53"), // insufficient resources
		strings.HasPrefix(code, "57"): // operator intervention
		return true
	}
	switch code {
	case "40001", "40P01", "55P03": // serialization failure, deadlock, lock not available
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}
	return false
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"database is locked",
}

func hasTransientMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ jsonload.ErrorClassifier = (*ConnectionErrorClassifier)(nil)
