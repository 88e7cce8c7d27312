// Package tui is the manual-entry door console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"doorcheck/entity"
	"doorcheck/internal/doorclient"
	"doorcheck/internal/ticket"

	tea "github.com/charmbracelet/bubbletea"
)

// API is the part of the check-in API the console uses.
type API interface {
	Resolve(ctx context.Context, eventId, code string) (*entity.Resolution, error)
	Commit(ctx context.Context, registrationId string) (*entity.CommitResult, error)
}

type state int

const (
	stateInput state = iota
	stateResolving
	stateConfirm
	stateCommitting
)

type resolvedMsg struct {
	res *entity.Resolution
	err error
}

type committedMsg struct {
	res *entity.CommitResult
	err error
}

type statusKind int

const (
	statusNone statusKind = iota
	statusOk
	statusWarn
	statusErr
)

// Console is the root Bubbletea model: type or paste a code, review the
// holder and the admission decision, confirm to check in.
type Console struct {
	api      API
	eventId  string
	operator string
	loc      *time.Location
	timeout  time.Duration

	state      state
	input      string
	resolution *entity.Resolution
	status     string
	statusKind statusKind
	admitted   int
}

func NewConsole(api API, eventId, operator string, loc *time.Location) Console {
	if loc == nil {
		loc = time.Local
	}
	return Console{
		api:      api,
		eventId:  eventId,
		operator: operator,
		loc:      loc,
		timeout:  10 * time.Second,
	}
}

func (c Console) Init() tea.Cmd {
	return nil
}

func (c Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return c, tea.Quit
		}
		return c.updateKeys(msg)

	case resolvedMsg:
		if c.state != stateResolving {
			return c, nil
		}
		if msg.err != nil {
			c.state = stateInput
			c.setStatus(statusErr, describeError(msg.err))
			return c, nil
		}
		c.state = stateConfirm
		c.resolution = msg.res
		c.status = ""
		c.statusKind = statusNone
		return c, nil

	case committedMsg:
		if c.state != stateCommitting {
			return c, nil
		}
		c.state = stateInput
		name := c.holderName()
		c.resolution = nil
		if msg.err != nil {
			c.setStatus(statusErr, describeError(msg.err))
			return c, nil
		}
		switch msg.res.Outcome {
		case entity.OutcomeCommitted:
			c.admitted++
			c.setStatus(statusOk, "Admitted "+name)
		case entity.OutcomeAlreadyCheckedIn:
			c.setStatus(statusWarn, name+" was already "+c.checkedInText(msg.res.CheckedInAt, msg.res.CheckedInBy))
		default:
			c.setStatus(statusErr, "Ticket not found")
		}
		return c, nil
	}
	return c, nil
}

func (c Console) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch c.state {
	case stateInput:
		switch key {
		case "enter":
			return c.submit()
		case "esc":
			c.input = ""
			return c, nil
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
			// pasted or typed by a keyboard-wedge scanner in one burst
			for _, r := range msg.Runes {
				c.input = editRune(c.input, string(r))
			}
			return c, nil
		}
		c.input = editRune(c.input, key)
		return c, nil

	case stateConfirm:
		switch key {
		case "y", "enter":
			if !c.canConfirm() {
				return c, nil
			}
			c.state = stateCommitting
			return c, c.commit(c.resolution.Registration.Id)
		case "esc", "n":
			c.state = stateInput
			c.resolution = nil
			c.setStatus(statusNone, "Discarded")
			return c, nil
		}
	}
	return c, nil
}

func (c Console) submit() (tea.Model, tea.Cmd) {
	code, err := ticket.Normalize(c.input)
	c.input = ""
	if err != nil {
		c.setStatus(statusErr, "Invalid ticket code format")
		return c, nil
	}
	c.state = stateResolving
	c.setStatus(statusNone, "Looking up "+code)
	return c, c.resolve(code)
}

func (c Console) resolve(code string) tea.Cmd {
	api, eventId, timeout := c.api, c.eventId, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := api.Resolve(ctx, eventId, code)
		return resolvedMsg{res: res, err: err}
	}
}

func (c Console) commit(registrationId string) tea.Cmd {
	api, timeout := c.api, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := api.Commit(ctx, registrationId)
		return committedMsg{res: res, err: err}
	}
}

// canConfirm is false when the commit could not admit the holder anyway.
func (c Console) canConfirm() bool {
	r := c.resolution
	return r != nil && r.Registration != nil && r.Admission.Admissible && !r.AlreadyCheckedIn
}

func (c *Console) setStatus(kind statusKind, text string) {
	c.statusKind = kind
	c.status = text
}

func (c Console) holderName() string {
	if c.resolution == nil || c.resolution.Registration == nil {
		return "holder"
	}
	if name := c.resolution.Registration.Holder.Name; name != "" {
		return name
	}
	return c.resolution.Registration.TicketCode
}

func (c Console) checkedInText(at *time.Time, by string) string {
	s := "checked in"
	if at != nil {
		s += " at " + at.In(c.loc).Format("15:04")
	}
	if by != "" {
		s += " by " + by
	}
	return s
}

func describeError(err error) string {
	var httpErr *doorclient.HTTPError
	switch {
	case doorclient.IsStatus(err, http.StatusNotFound):
		return "Ticket not found"
	case doorclient.IsStatus(err, http.StatusBadRequest):
		return "Invalid ticket code format"
	case doorclient.IsStatus(err, http.StatusServiceUnavailable):
		return "Storage unavailable, scan again"
	case doorclient.IsStatus(err, http.StatusUnauthorized), doorclient.IsStatus(err, http.StatusForbidden):
		return "Operator token rejected"
	case errors.As(err, &httpErr):
		return httpErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "No answer from the server, scan again"
	}
	return err.Error()
}

func (c Console) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DOOR CHECK"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  event %s · operator %s · admitted %d", c.eventId, c.operator, c.admitted)))
	b.WriteString("\n\n")

	switch c.state {
	case stateInput, stateResolving:
		cursor := accentStyle.Render("█")
		if c.state == stateResolving {
			cursor = ""
		}
		b.WriteString("Code: " + c.input + cursor + "\n")
	case stateConfirm, stateCommitting:
		b.WriteString(c.renderResolution())
		b.WriteString("\n")
	}

	if c.status != "" {
		b.WriteString("\n")
		switch c.statusKind {
		case statusOk:
			b.WriteString(okStyle.Render("✓ " + c.status))
		case statusWarn:
			b.WriteString(warnStyle.Render("! " + c.status))
		case statusErr:
			b.WriteString(errStyle.Render("✗ " + c.status))
		default:
			b.WriteString(dimStyle.Render(c.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpKeyStyle.Render(c.help()))
	return b.String()
}

func (c Console) renderResolution() string {
	r := c.resolution
	if r == nil || r.Registration == nil {
		return ""
	}
	reg := r.Registration
	lines := []string{
		holderStyle.Render(c.holderName()),
		dimStyle.Render(reg.TicketCode),
		reg.Event.Title,
	}
	if reg.Holder.Country != "" {
		lines[0] += dimStyle.Render("  " + reg.Holder.Country)
	}
	switch {
	case r.AlreadyCheckedIn:
		lines = append(lines, warnStyle.Render("Already "+c.checkedInText(reg.CheckedInAt, reg.CheckedInBy)))
	case !r.Admission.Admissible:
		opens := ""
		if r.Admission.OpensAt != nil {
			opens = " until " + r.Admission.OpensAt.In(c.loc).Format("15:04")
		}
		lines = append(lines, errStyle.Render("Too early: check-in closed"+opens))
	case r.Admission.Unscheduled:
		lines = append(lines, okStyle.Render("Admissible")+dimStyle.Render(" (no start time)"))
	default:
		lines = append(lines, okStyle.Render("Admissible"))
	}
	if c.state == stateCommitting {
		lines = append(lines, dimStyle.Render("Checking in…"))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (c Console) help() string {
	switch c.state {
	case stateConfirm:
		if c.canConfirm() {
			return "y/enter check in · esc discard · ctrl+c quit"
		}
		return "esc discard · ctrl+c quit"
	case stateResolving, stateCommitting:
		return "ctrl+c quit"
	}
	return "enter look up · esc clear · ctrl+c quit"
}
