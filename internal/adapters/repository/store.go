// Package repository defines the record store contract and its adapters.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/bncc/internal/domain/model"
	"github.com/okian/bncc/pkg/metrics"
)

// Operation names used in errors and metrics.
const (
	OpListRecords  = "list_records"
	OpInsertRecord = "insert_record"
	OpDeleteRecord = "delete_record"
	OpListLookup   = "list_lookup"
	OpInsertLookup = "insert_lookup"
	OpDeleteLookup = "delete_lookup"
)

// Store provides read/write access to the records table and the lookup lists.
type Store interface {
	// ListRecords returns every record ordered by date ascending. Equal dates
	// keep store order.
	ListRecords(ctx context.Context) ([]model.Record, error)
	// InsertRecord persists one record; the store assigns its id.
	InsertRecord(ctx context.Context, r model.Record) error
	// DeleteRecord removes the record with the given id.
	DeleteRecord(ctx context.Context, id model.RecordID) error

	// ListLookup returns the names of a lookup list in ascending order.
	ListLookup(ctx context.Context, kind model.LookupKind) ([]string, error)
	// InsertLookup adds a name. Returns ErrDuplicateName if it exists.
	InsertLookup(ctx context.Context, kind model.LookupKind, name string) error
	// DeleteLookup removes the name by exact match.
	DeleteLookup(ctx context.Context, kind model.LookupKind, name string) error
}

// Tables names the tables and the lookup column a store works against.
type Tables struct {
	Records      string
	Schools      string
	Constructors string
	LookupColumn string
}

// DefaultTables returns the standard table layout.
func DefaultTables() Tables {
	return Tables{
		Records:      "relatorios_bncc",
		Schools:      "escolas",
		Constructors: "construtores",
		LookupColumn: "nome",
	}
}

// Lookup returns the table backing a lookup list.
func (t Tables) Lookup(kind model.LookupKind) (string, error) {
	switch kind {
	case model.LookupSchools:
		return t.Schools, nil
	case model.LookupConstructors:
		return t.Constructors, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLookup, kind)
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Records == "" {
		t.Records = d.Records
	}
	if t.Schools == "" {
		t.Schools = d.Schools
	}
	if t.Constructors == "" {
		t.Constructors = d.Constructors
	}
	if t.LookupColumn == "" {
		t.LookupColumn = d.LookupColumn
	}
	return t
}

// observe records the latency and outcome of one store call.
func observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		var te *TransportError
		if errors.As(err, &te) && te.Timeout {
			outcome = metrics.OutcomeTimeout
		}
	}
	metrics.RecordStoreRequest(op, outcome, float64(time.Since(start).Microseconds())/1000)
}
