package store

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

// Operation names reported in UnavailableError.Op.
const (
	OpConnect = "connect"
	OpAcquire = "acquire"
	OpPing    = "ping"
	OpQuery   = "query"
	OpScan    = "scan"
)

// unavailableClasses are SQLSTATE classes that mean the server cannot serve
// the request right now: 08 connection exception, 53 insufficient resources.
var unavailableClasses = map[string]bool{
	"08": true,
	"53": true,
}

// ClassifyError maps a driver error to the query error taxonomy.
//
// sql is attached to execution errors for diagnostics and may be empty.
func ClassifyError(op string, err error, sql string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if isUnavailableCode(pgErr.Code) {
			return &query.UnavailableError{Op: op, Cause: err}
		}
		qe := &query.Error{
			Code:    query.ErrCodeExecution,
			Message: "query execution failed",
			Cause:   err,
		}
		qe.WithDetail("sqlstate", pgErr.Code)
		if sql != "" {
			qe.WithDetail("sql", sql)
		}
		return qe
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return &query.UnavailableError{Op: op, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &query.UnavailableError{Op: op, Cause: err}
	}

	switch op {
	case OpConnect, OpAcquire, OpPing:
		return &query.UnavailableError{Op: op, Cause: err}
	}

	qe := &query.Error{
		Code:    query.ErrCodeExecution,
		Message: op + " failed",
		Cause:   err,
	}
	if sql != "" {
		qe.WithDetail("sql", sql)
	}
	return qe
}

// isUnavailableCode reports whether a SQLSTATE means the server is
// unreachable or shutting down. 57P01..57P05 are operator interventions;
// 57014 (statement cancelled) is a per-query outcome and stays EXECUTION.
func isUnavailableCode(code string) bool {
	if len(code) < 2 {
		return false
	}
	return unavailableClasses[code[:2]] || strings.HasPrefix(code, "57P")
}
