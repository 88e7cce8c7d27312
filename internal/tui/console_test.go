package tui

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/doorclient"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeAPI struct {
	resolution *entity.Resolution
	resolveErr error
	commit     *entity.CommitResult
	resolved   []string
	committed  []string
}

func (f *fakeAPI) Resolve(_ context.Context, _, code string) (*entity.Resolution, error) {
	f.resolved = append(f.resolved, code)
	return f.resolution, f.resolveErr
}

func (f *fakeAPI) Commit(_ context.Context, id string) (*entity.CommitResult, error) {
	f.committed = append(f.committed, id)
	return f.commit, nil
}

func admissible() *entity.Resolution {
	return &entity.Resolution{
		Registration: &entity.RegistrationView{
			Registration: entity.Registration{Id: "r-1", TicketCode: "MAIN-ABCDE-1234"},
			Holder:       entity.HolderView{Name: "Ada Lovelace", Country: "GB"},
			Event:        entity.EventView{Title: "Main Stage"},
		},
		Admission: entity.Admission{Admissible: true},
	}
}

func typeText(t *testing.T, c Console, text string) Console {
	t.Helper()
	for _, r := range text {
		model, _ := c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		c = model.(Console)
	}
	return c
}

// press sends a key and runs the returned command once, feeding its message back.
func press(t *testing.T, c Console, key tea.KeyMsg) Console {
	t.Helper()
	model, cmd := c.Update(key)
	c = model.(Console)
	if cmd != nil {
		model, _ = c.Update(cmd())
		c = model.(Console)
	}
	return c
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	yes   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}
)

func TestConsoleCheckIn(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		resolution: admissible(),
		commit:     &entity.CommitResult{Outcome: entity.OutcomeCommitted, RegistrationId: "r-1", CheckedInAt: &at},
	}
	c := NewConsole(api, "main", "op-1", time.UTC)

	c = typeText(t, c, "main-abcde-1234")
	c = press(t, c, enter)
	if c.state != stateConfirm {
		t.Fatalf("state = %v, want confirm", c.state)
	}
	if len(api.resolved) != 1 || api.resolved[0] != "MAIN-ABCDE-1234" {
		t.Errorf("resolved = %v, want normalized code", api.resolved)
	}
	if !strings.Contains(c.View(), "Ada Lovelace") {
		t.Errorf("view lacks holder:\n%s", c.View())
	}

	c = press(t, c, yes)
	if c.state != stateInput || c.statusKind != statusOk || c.admitted != 1 {
		t.Errorf("after commit: state=%v status=%q admitted=%d", c.state, c.status, c.admitted)
	}
	if len(api.committed) != 1 || api.committed[0] != "r-1" {
		t.Errorf("committed = %v", api.committed)
	}
}

func TestConsoleDiscard(t *testing.T) {
	api := &fakeAPI{resolution: admissible()}
	c := NewConsole(api, "main", "op-1", time.UTC)
	c = typeText(t, c, "MAIN-ABCDE-1234")
	c = press(t, c, enter)
	c = press(t, c, esc)
	if c.state != stateInput || c.resolution != nil {
		t.Errorf("state = %v, resolution = %v", c.state, c.resolution)
	}
	if len(api.committed) != 0 {
		t.Errorf("discard committed %v", api.committed)
	}
}

func TestConsoleInvalidCodeSkipsLookup(t *testing.T) {
	api := &fakeAPI{}
	c := NewConsole(api, "main", "op-1", time.UTC)
	c = typeText(t, c, "not a code")
	c = press(t, c, enter)
	if c.statusKind != statusErr || len(api.resolved) != 0 {
		t.Errorf("status=%q resolved=%v", c.status, api.resolved)
	}
}

func TestConsoleTooEarlyCannotConfirm(t *testing.T) {
	opens := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	res := admissible()
	res.Admission = entity.Admission{Admissible: false, OpensAt: &opens}
	api := &fakeAPI{resolution: res}
	c := NewConsole(api, "main", "op-1", time.UTC)

	c = typeText(t, c, "MAIN-ABCDE-1234")
	c = press(t, c, enter)
	if !strings.Contains(c.View(), "until 18:00") {
		t.Errorf("view lacks opening time:\n%s", c.View())
	}
	c = press(t, c, yes)
	if c.state != stateConfirm || len(api.committed) != 0 {
		t.Errorf("too early ticket was committed: state=%v committed=%v", c.state, api.committed)
	}
}

func TestConsoleAlreadyCheckedIn(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	res := admissible()
	res.AlreadyCheckedIn = true
	res.Registration.CheckedInAt = &at
	res.Registration.CheckedInBy = "op-7"
	c := NewConsole(&fakeAPI{resolution: res}, "main", "op-1", time.UTC)

	c = typeText(t, c, "MAIN-ABCDE-1234")
	c = press(t, c, enter)
	if v := c.View(); !strings.Contains(v, "18:00 by op-7") {
		t.Errorf("view lacks earlier check-in:\n%s", v)
	}
	if c.canConfirm() {
		t.Error("checked-in ticket can be confirmed")
	}
}

func TestConsoleNotFound(t *testing.T) {
	api := &fakeAPI{resolveErr: &doorclient.HTTPError{StatusCode: http.StatusNotFound, Message: "Ticket not found"}}
	c := NewConsole(api, "main", "op-1", time.UTC)
	c = typeText(t, c, "MAIN-ZZZZZ-0000")
	c = press(t, c, enter)
	if c.state != stateInput || c.status != "Ticket not found" {
		t.Errorf("state=%v status=%q", c.state, c.status)
	}
}

func TestConsolePaste(t *testing.T) {
	c := NewConsole(&fakeAPI{}, "main", "op-1", time.UTC)
	model, _ := c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("MAIN-ABCDE-1234"), Paste: true})
	c = model.(Console)
	if c.input != "MAIN-ABCDE-1234" {
		t.Errorf("input = %q", c.input)
	}
}

func TestEditRune(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append", "MAI", "N", "MAIN"},
		{"backspace", "MAIN", "backspace", "MAI"},
		{"backspace empty", "", "backspace", ""},
		{"ignore named key", "MAIN", "tab", "MAIN"},
		{"clamp", strings.Repeat("A", maxInputLen), "B", strings.Repeat("A", maxInputLen)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := editRune(tc.start, tc.key); got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}
