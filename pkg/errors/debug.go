package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrorDump is the flattened view of an error chain written to structured logs.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`

	// Cause classifies well-known sentinels found in the chain: "canceled",
	// "deadline", "record_not_found" or "redis_nil".
	Cause string `json:"cause,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump walks err and collects what a log reader needs to place the failure.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = te.Retryable()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	switch {
	case errors.Is(err, context.Canceled):
		d.Cause = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		d.Cause = "deadline"
	case errors.Is(err, gorm.ErrRecordNotFound):
		d.Cause = "record_not_found"
	case errors.Is(err, redis.Nil):
		d.Cause = "redis_nil"
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode, d.PGConstraint, d.PGTable = pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName
		d.PGDetail, d.PGMessage = pgxErr.Detail, pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode, d.PGConstraint, d.PGTable = string(pqErr.Code), pqErr.Constraint, pqErr.Table
		d.PGDetail, d.PGMessage = pqErr.Detail, pqErr.Message
	}
	return d
}

// Fields renders the dump as log fields, leaving out empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":     d.TopMessage,
		"retryable": d.Retryable,
	}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("error_code", string(d.Code))
	set("error_cause", d.Cause)
	set("pg_code", d.PGCode)
	set("pg_constraint", d.PGConstraint)
	set("pg_table", d.PGTable)
	set("pg_detail", d.PGDetail)
	set("pg_message", d.PGMessage)
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	return fields
}
