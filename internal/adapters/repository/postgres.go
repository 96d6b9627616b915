package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/bncc/internal/domain/model"
)

// Pool limits for the Postgres store.
const (
	pgMaxOpenConns    = 10
	pgMaxIdleConns    = 5
	pgConnMaxIdleTime = time.Minute
	pgConnMaxLifetime = 10 * time.Minute
)

// recordRow mirrors a relatorios_bncc row. Skill and constructor columns are
// nullable and may be missing entirely depending on the table version.
type recordRow struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	School      string     `gorm:"column:escola"`
	GradeLevel  string     `gorm:"column:serie"`
	Subject     string     `gorm:"column:disciplina"`
	Date        model.Date `gorm:"column:data"`
	Skill       *string    `gorm:"column:habilidade"`
	Constructor *string    `gorm:"column:construtor"`
	Result      int        `gorm:"column:resultado"`
}

func (r recordRow) toModel() model.Record {
	rec := model.Record{
		ID:         model.RecordID(strconv.FormatInt(r.ID, 10)),
		School:     r.School,
		GradeLevel: r.GradeLevel,
		Subject:    model.Subject(r.Subject),
		Date:       r.Date,
		Result:     r.Result,
	}
	if r.Skill != nil {
		rec.Skill = *r.Skill
	}
	if r.Constructor != nil {
		rec.Constructor = *r.Constructor
	}
	return rec
}

// insertColumns maps a record to the columns to insert. Empty optional
// columns are omitted so either table version accepts the row.
func insertColumns(r model.Record) map[string]any {
	cols := map[string]any{
		"escola":     r.School,
		"serie":      r.GradeLevel,
		"disciplina": string(r.Subject),
		"data":       r.Date,
		"resultado":  r.Result,
	}
	if r.Skill != "" {
		cols["habilidade"] = r.Skill
	}
	if r.Constructor != "" {
		cols["construtor"] = r.Constructor
	}
	return cols
}

// PostgresStore reaches the same tables directly over a Postgres connection.
type PostgresStore struct {
	db      *gorm.DB
	tables  Tables
	timeout time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a pooled connection to dsn.
func NewPostgresStore(dsn string, opts ...Option) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	sqlDB.SetMaxOpenConns(pgMaxOpenConns)
	sqlDB.SetMaxIdleConns(pgMaxIdleConns)
	sqlDB.SetConnMaxIdleTime(pgConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(pgConnMaxLifetime)
	return NewPostgresStoreFromDB(db, opts...), nil
}

// NewPostgresStoreFromDB wraps an existing gorm handle. The handle should be
// opened with TranslateError so unique violations map to ErrDuplicateName.
func NewPostgresStoreFromDB(db *gorm.DB, opts ...Option) *PostgresStore {
	s := newSettings(opts)
	return &PostgresStore{db: db, tables: s.tables, timeout: s.timeout}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *PostgresStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if op == OpInsertLookup && errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateName, err)
	}
	return &TransportError{Op: op, Timeout: isTimeout(err), Err: err}
}

// ListRecords selects every record ordered by date, then id.
func (s *PostgresStore) ListRecords(ctx context.Context) (recs []model.Record, err error) {
	defer func(start time.Time) { observe(OpListRecords, start, err) }(time.Now())

	db, cancel := s.session(ctx)
	defer cancel()
	var rows []recordRow
	if err := db.Table(s.tables.Records).Order("data ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, s.wrap(OpListRecords, err)
	}
	recs = make([]model.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toModel())
	}
	return recs, nil
}

// InsertRecord inserts one row; the database assigns the id.
func (s *PostgresStore) InsertRecord(ctx context.Context, r model.Record) (err error) {
	defer func(start time.Time) { observe(OpInsertRecord, start, err) }(time.Now())

	db, cancel := s.session(ctx)
	defer cancel()
	return s.wrap(OpInsertRecord, db.Table(s.tables.Records).Create(insertColumns(r)).Error)
}

// DeleteRecord deletes by numeric id.
func (s *PostgresStore) DeleteRecord(ctx context.Context, id model.RecordID) (err error) {
	defer func(start time.Time) { observe(OpDeleteRecord, start, err) }(time.Now())

	n, err := id.Int64()
	if err != nil {
		return model.NewValidationError("id", "must be numeric")
	}
	db, cancel := s.session(ctx)
	defer cancel()
	return s.wrap(OpDeleteRecord, db.Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: s.tables.Records}, n).Error)
}

// ListLookup selects the non-null names of a lookup list in bytewise order,
// independent of the database collation.
func (s *PostgresStore) ListLookup(ctx context.Context, kind model.LookupKind) (names []string, err error) {
	defer func(start time.Time) { observe(OpListLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return nil, err
	}
	col := s.tables.LookupColumn
	db, cancel := s.session(ctx)
	defer cancel()
	names = []string{}
	err = db.Table(table).
		Where("? IS NOT NULL", clause.Column{Name: col}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}}).
		Pluck(col, &names).Error
	if err != nil {
		return nil, s.wrap(OpListLookup, err)
	}
	slices.Sort(names)
	return names, nil
}

// InsertLookup inserts a name.
func (s *PostgresStore) InsertLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpInsertLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return err
	}
	db, cancel := s.session(ctx)
	defer cancel()
	return s.wrap(OpInsertLookup, db.Table(table).Create(map[string]any{s.tables.LookupColumn: name}).Error)
}

// DeleteLookup deletes a name by exact match.
func (s *PostgresStore) DeleteLookup(ctx context.Context, kind model.LookupKind, name string) (err error) {
	defer func(start time.Time) { observe(OpDeleteLookup, start, err) }(time.Now())

	table, err := s.tables.Lookup(kind)
	if err != nil {
		return err
	}
	db, cancel := s.session(ctx)
	defer cancel()
	err = db.Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: table}, clause.Column{Name: s.tables.LookupColumn}, name).Error
	return s.wrap(OpDeleteLookup, err)
}
