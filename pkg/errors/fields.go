package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens err for structured logs: the message, the typed code, the
// unwrap chain and, for Postgres failures from either driver, the server fields.
// Empty values are left out.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{"error": err.Error()}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
	}

	var chain []string
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	if len(chain) > 1 {
		fields["error_chain"] = chain
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		putNonEmpty(fields, "pg_code", pgxErr.Code)
		putNonEmpty(fields, "pg_constraint", pgxErr.ConstraintName)
		putNonEmpty(fields, "pg_table", pgxErr.TableName)
		putNonEmpty(fields, "pg_detail", pgxErr.Detail)
	case stdErrors.As(err, &pqErr):
		putNonEmpty(fields, "pg_code", string(pqErr.Code))
		putNonEmpty(fields, "pg_constraint", pqErr.Constraint)
		putNonEmpty(fields, "pg_table", pqErr.Table)
		putNonEmpty(fields, "pg_detail", pqErr.Detail)
	}
	return fields
}

func putNonEmpty(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
