package doorclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doorcheck/entity"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"data":           data,
		"success":        success,
		"status_message": message,
	})
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/events/main/resolve" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer door-token" {
			writeEnvelope(w, http.StatusUnauthorized, false, "Token not found", nil)
			return
		}
		var req entity.CodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code != "main-abcde-1234" {
			writeEnvelope(w, http.StatusBadRequest, false, "bad body", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "Success", entity.Resolution{
			Registration: &entity.RegistrationView{Registration: entity.Registration{Id: "r-1", TicketCode: "MAIN-ABCDE-1234"}},
			Admission:    entity.Admission{Admissible: true},
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "door-token")
	res, err := c.Resolve(context.Background(), "main", "main-abcde-1234")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Registration.Id != "r-1" || !res.Admission.Admissible {
		t.Errorf("resolution = %+v", res)
	}

	_, err = New(srv.URL, "wrong").Resolve(context.Background(), "main", "main-abcde-1234")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("err = %v, want HTTP 401", err)
	}
	if !strings.Contains(err.Error(), "Token not found") {
		t.Errorf("err = %q, want the server message", err)
	}
}

func TestAdmitTooEarly(t *testing.T) {
	opens := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusConflict, false, "Check-in has not opened yet", map[string]any{"opens_at": opens})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").Admit(context.Background(), "main", "MAIN-ABCDE-1234")
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("err = %v, want HTTP 409", err)
	}
	got, ok := OpensAt(err)
	if !ok || !got.Equal(opens) {
		t.Errorf("OpensAt = %v, %v; want %v", got, ok, opens)
	}
}

func TestCommit(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/registrations/r%2F1/checkin" && r.URL.RawPath != "/v1/registrations/r%2F1/checkin" {
			http.NotFound(w, r)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "Success", entity.CommitResult{
			Outcome: entity.OutcomeAlreadyCheckedIn, RegistrationId: "r/1", CheckedInAt: &at, CheckedInBy: "op-1",
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, "t").Commit(context.Background(), "r/1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if res.Outcome != entity.OutcomeAlreadyCheckedIn || !res.CheckedInAt.Equal(at) {
		t.Errorf("commit = %+v", res)
	}
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").Stats(context.Background(), "main")
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("err = %v, want HTTP 502", err)
	}
	if _, ok := OpensAt(err); ok {
		t.Error("OpensAt reported a time for a non-409 error")
	}
}
