package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySql keeps registrations in the platform's MySQL database.
type MySql struct {
	db         *sql.DB
	prefix     string
	structure  map[string]map[string]Column
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	c := conf.MySql
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		c.UserName, c.Password, c.HostName, c.Port, c.Database)
	return OpenMySql(connectionURI, c.Prefix)
}

// OpenMySql connects with a ready DSN; parseTime=true is required.
func OpenMySql(dsn, prefix string) (*MySql, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// the database may still be starting next to us
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(5 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     prefix,
		structure:  make(map[string]map[string]Column),
		statements: make(map[string]*sql.Stmt),
	}
	if err = sdb.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) ensureSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS %sevents (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			title VARCHAR(255) NOT NULL DEFAULT '',
			start_time DATETIME NULL
		)`,
		`CREATE TABLE IF NOT EXISTS %sholders (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			country VARCHAR(64) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS %sregistrations (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL,
			holder_id VARCHAR(64) NOT NULL,
			ticket_code VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'registered',
			UNIQUE KEY uq_event_ticket (event_id, ticket_code)
		)`,
	}
	for _, t := range tables {
		if _, err := s.db.Exec(fmt.Sprintf(t, s.prefix)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// registration tables created by the registration flow may predate check-in
	if err := s.addColumnIfNotExists("registrations", "checked_in_at", "DATETIME(6) NULL"); err != nil {
		return err
	}
	if err := s.addColumnIfNotExists("registrations", "checked_in_by", "VARCHAR(64) NULL"); err != nil {
		return err
	}
	return s.checkStructure("registrations", "checked_in_at", "checked_in_by")
}

// checkStructure refuses to run against check-in columns that cannot hold
// NULL: the conditional write depends on it.
func (s *MySql) checkStructure(tableName string, nullable ...string) error {
	columns, err := s.loadTableStructure(tableName)
	if err != nil {
		return err
	}
	s.structure[tableName] = columns
	for _, name := range nullable {
		col, ok := columns[name]
		if !ok {
			return fmt.Errorf("schema mismatch: %s%s.%s missing", s.prefix, tableName, name)
		}
		if !col.IsNullable {
			return fmt.Errorf("schema mismatch: %s%s.%s must be nullable", s.prefix, tableName, name)
		}
	}
	return nil
}

func (s *MySql) FindByCode(ctx context.Context, eventId, code string) (*entity.RegistrationView, error) {
	stmt, err := s.stmtSelectByCode()
	if err != nil {
		return nil, classify("mysql find by code", err)
	}
	view, err := scanView(stmt.QueryRowContext(ctx, eventId, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, classify("mysql find by code", err)
	}
	return view, nil
}

func (s *MySql) MarkAttended(ctx context.Context, registrationId, operatorId string, at time.Time) (*entity.CommitResult, error) {
	at = storedTime(at)
	stmt, err := s.stmtMarkAttended()
	if err != nil {
		return nil, classify("mysql mark attended", err)
	}
	res, err := stmt.ExecContext(ctx, at, operatorId, registrationId)
	if err != nil {
		return nil, classify("mysql mark attended", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, classify("mysql rows affected", err)
	}
	if affected == 1 {
		return committed(registrationId, operatorId, at), nil
	}

	// lost the race or the row does not exist; read back to tell which
	stmt, err = s.stmtSelectCheckIn()
	if err != nil {
		return nil, classify("mysql select check-in", err)
	}
	var checkedInAt sql.NullTime
	var checkedInBy sql.NullString
	err = stmt.QueryRowContext(ctx, registrationId).Scan(&checkedInAt, &checkedInBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &entity.CommitResult{Outcome: entity.OutcomeNotFound, RegistrationId: registrationId}, nil
		}
		return nil, classify("mysql select check-in", err)
	}
	return alreadyCheckedIn(registrationId, checkedInAt, checkedInBy), nil
}

func (s *MySql) EventRegistrations(ctx context.Context, eventId string) ([]*entity.RegistrationView, error) {
	stmt, err := s.stmtSelectEventRegistrations()
	if err != nil {
		return nil, classify("mysql event registrations", err)
	}
	rows, err := stmt.QueryContext(ctx, eventId)
	if err != nil {
		return nil, classify("mysql event registrations", err)
	}
	defer rows.Close()

	views := make([]*entity.RegistrationView, 0)
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, classify("mysql scan registration", err)
		}
		views = append(views, view)
	}
	if err = rows.Err(); err != nil {
		return nil, classify("mysql event registrations", err)
	}
	return views, nil
}
