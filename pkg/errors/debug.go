package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields returns structured log fields describing err beyond its message: the typed code,
// the unwrap chain and Postgres diagnostics of the first driver error found. Empty values
// are omitted.
func LogFields(err error) map[string]any {
	fields := map[string]any{}
	if err == nil {
		return fields
	}

	if te := As(err); te != nil {
		fields["error_code"] = te.Code()
		if step := detailString(te.Details(), "step"); step != "" {
			fields["step"] = step
		}
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	if len(chain) > 1 {
		fields["error_chain"] = chain
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		putPG(fields, pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail)
	case errors.As(err, &pqErr):
		putPG(fields, string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail)
	}
	return fields
}

func putPG(fields map[string]any, code, constraint, table, detail string) {
	for key, value := range map[string]string{
		"pg_code":       code,
		"pg_constraint": constraint,
		"pg_table":      table,
		"pg_detail":     detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
}

func detailString(details any, key string) string {
	m, ok := details.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
