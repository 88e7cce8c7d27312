package database

import (
	"database/sql"
	"time"

	"doorcheck/entity"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// viewColumns is the select list shared by the SQL stores; scanView reads it.
const viewColumns = `r.id, r.event_id, r.holder_id, r.ticket_code, r.status, r.checked_in_at, r.checked_in_by,
       COALESCE(h.name, ''), COALESCE(h.email, ''), COALESCE(h.country, ''),
       COALESCE(e.title, ''), e.start_time`

func scanView(row rowScanner) (*entity.RegistrationView, error) {
	var (
		reg         entity.Registration
		status      string
		checkedInAt sql.NullTime
		checkedInBy sql.NullString
		holder      entity.Holder
		event       entity.Event
		startTime   sql.NullTime
	)
	err := row.Scan(
		&reg.Id,
		&reg.EventId,
		&reg.HolderId,
		&reg.TicketCode,
		&status,
		&checkedInAt,
		&checkedInBy,
		&holder.Name,
		&holder.Email,
		&holder.Country,
		&event.Title,
		&startTime,
	)
	if err != nil {
		return nil, err
	}
	reg.Status = entity.RegistrationStatus(status)
	if checkedInAt.Valid {
		at := checkedInAt.Time.UTC()
		reg.CheckedInAt = &at
	}
	if checkedInBy.Valid {
		reg.CheckedInBy = checkedInBy.String
	}
	holder.Id = reg.HolderId
	event.Id = reg.EventId
	if startTime.Valid {
		st := startTime.Time
		event.StartTime = &st
	}
	return &entity.RegistrationView{
		Registration: reg,
		Holder:       holder.View(),
		Event:        event.View(),
	}, nil
}

// alreadyCheckedIn builds the losing side of the conditional write from the
// re-read row.
func alreadyCheckedIn(id string, at sql.NullTime, by sql.NullString) *entity.CommitResult {
	result := &entity.CommitResult{
		Outcome:        entity.OutcomeAlreadyCheckedIn,
		RegistrationId: id,
		CheckedInBy:    by.String,
	}
	if at.Valid {
		stamp := at.Time.UTC()
		result.CheckedInAt = &stamp
	}
	return result
}

func committed(id, operatorId string, at time.Time) *entity.CommitResult {
	return &entity.CommitResult{
		Outcome:        entity.OutcomeCommitted,
		RegistrationId: id,
		CheckedInAt:    &at,
		CheckedInBy:    operatorId,
	}
}

// storedTime is the precision both SQL engines keep for checked_in_at.
func storedTime(at time.Time) time.Time {
	return at.UTC().Truncate(time.Microsecond)
}
