package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/doorclient"
	"doorcheck/internal/scan"
	"doorcheck/internal/ticket"
)

type admitter interface {
	Admit(ctx context.Context, eventId, code string) (*entity.AdmitResult, error)
}

// runWedge admits every scanned line in turn. The source stays paused while a
// candidate is in flight, so scans made meanwhile are dropped, not queued.
func runWedge(ctx context.Context, api admitter, src scan.Source, eventId string, out io.Writer, loc *time.Location) error {
	for {
		raw, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, scan.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, admitLine(ctx, api, eventId, raw, loc))
		src.Resume()
	}
}

func admitLine(ctx context.Context, api admitter, eventId, raw string, loc *time.Location) string {
	code, err := ticket.Normalize(raw)
	if err != nil {
		return fmt.Sprintf("INVALID   %q", raw)
	}
	res, err := api.Admit(ctx, eventId, code)
	if err != nil {
		if opens, ok := doorclient.OpensAt(err); ok {
			return fmt.Sprintf("TOO EARLY %s opens %s", code, opens.In(loc).Format("15:04"))
		}
		switch {
		case doorclient.IsStatus(err, http.StatusNotFound):
			return fmt.Sprintf("NOT FOUND %s", code)
		case doorclient.IsStatus(err, http.StatusServiceUnavailable):
			return fmt.Sprintf("RETRY     %s storage unavailable", code)
		}
		return fmt.Sprintf("ERROR     %s %v", code, err)
	}

	name := code
	if res.Resolution != nil && res.Resolution.Registration != nil && res.Resolution.Registration.Holder.Name != "" {
		name = res.Resolution.Registration.Holder.Name
	}
	if res.Commit == nil {
		return fmt.Sprintf("ERROR     %s no commit result", code)
	}
	switch res.Commit.Outcome {
	case entity.OutcomeCommitted:
		return fmt.Sprintf("ADMITTED  %s %s", code, name)
	case entity.OutcomeAlreadyCheckedIn:
		when := ""
		if res.Commit.CheckedInAt != nil {
			when = " at " + res.Commit.CheckedInAt.In(loc).Format("15:04")
		}
		return fmt.Sprintf("ALREADY   %s %s checked in%s by %s", code, name, when, res.Commit.CheckedInBy)
	}
	return fmt.Sprintf("NOT FOUND %s", code)
}
