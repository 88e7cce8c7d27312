package database

import (
	"database/sql"
	"errors"
	"fmt"
)

type Column struct {
	Name          string
	DefaultValue  *string // nil when the default is NULL
	IsNullable    bool
	DataType      string
	AutoIncrement bool
}

// loadTableStructure reads column metadata from information_schema, keyed by column name.
func (s *MySql) loadTableStructure(tableName string) (map[string]Column, error) {
	query := fmt.Sprintf(`
        SELECT COLUMN_NAME, COLUMN_DEFAULT, IS_NULLABLE, DATA_TYPE, EXTRA
          FROM information_schema.columns
         WHERE table_schema = DATABASE() AND table_name = '%s%s'
         ORDER BY ORDINAL_POSITION`, s.prefix, tableName)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	columns := make(map[string]Column)

	for rows.Next() {
		var colName, isNullable, dataType, extra string
		var colDefault sql.NullString

		if err = rows.Scan(&colName, &colDefault, &isNullable, &dataType, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		var defValPtr *string
		if colDefault.Valid {
			defValPtr = &colDefault.String
		}

		columns[colName] = Column{
			Name:          colName,
			DefaultValue:  defValPtr,
			IsNullable:    isNullable == "YES",
			DataType:      dataType,
			AutoIncrement: extra == "auto_increment",
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("after scanning rows: %w", err)
	}

	return columns, nil
}

func (s *MySql) addColumnIfNotExists(tableName, columnName, columnType string) error {
	query := fmt.Sprintf(`SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = '%s%s' AND COLUMN_NAME = '%s'`,
		s.prefix, tableName, columnName)
	var column string
	err := s.db.QueryRow(query).Scan(&column)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			alterQuery := fmt.Sprintf(`ALTER TABLE %s%s ADD COLUMN %s %s`, s.prefix, tableName, columnName, columnType)
			_, err = s.db.Exec(alterQuery)
			if err != nil {
				return fmt.Errorf("add column %s to table %s: %w", columnName, tableName, err)
			}
		} else {
			return fmt.Errorf("checking column %s existence in %s: %w", columnName, tableName, err)
		}
	}
	return nil
}
