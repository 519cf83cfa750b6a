package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
)

// postgres codes of the server refusing work until it is restarted
var shutdownCodes = map[pq.ErrorCode]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// message of database/sql's unexported errDBClosed
const dbClosedMsg = "sql: database is closed"

// TrapShutdownErr wraps err with msg, turning it into a core shutdown error
// when the database server is going away or the connection pool was closed.
func TrapShutdownErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	cause := errors.Cause(err)
	if pqErr, ok := cause.(*pq.Error); ok && shutdownCodes[pqErr.Code] {
		return core.NewShutdownError(err, msg+": database unavailable")
	}
	if cause == sql.ErrConnDone || cause.Error() == dbClosedMsg {
		return core.NewShutdownError(err, msg+": database closed")
	}
	return errors.Wrap(err, msg)
}
