package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectByCode() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s
		   FROM %sregistrations r
		   LEFT JOIN %sholders h ON h.id = r.holder_id
		   LEFT JOIN %sevents e ON e.id = r.event_id
		  WHERE r.event_id = ? AND r.ticket_code = ?`,
		viewColumns, s.prefix, s.prefix, s.prefix,
	)
	return s.prepareStmt("selectByCode", query)
}

func (s *MySql) stmtSelectEventRegistrations() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s
		   FROM %sregistrations r
		   LEFT JOIN %sholders h ON h.id = r.holder_id
		   LEFT JOIN %sevents e ON e.id = r.event_id
		  WHERE r.event_id = ?
		  ORDER BY r.ticket_code`,
		viewColumns, s.prefix, s.prefix, s.prefix,
	)
	return s.prepareStmt("selectEventRegistrations", query)
}

// stmtMarkAttended is the conditional write; the affected-row count tells
// whether this caller won.
func (s *MySql) stmtMarkAttended() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %sregistrations SET
                   status = 'attended',
                   checked_in_at = ?,
                   checked_in_by = ?
                   WHERE id = ? AND checked_in_at IS NULL`,
		s.prefix,
	)
	return s.prepareStmt("markAttended", query)
}

func (s *MySql) stmtSelectCheckIn() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT checked_in_at, checked_in_by FROM %sregistrations WHERE id = ?`,
		s.prefix,
	)
	return s.prepareStmt("selectCheckIn", query)
}
