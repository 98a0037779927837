package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/backup"
	"github.com/asifrahman2003/devpulse/internal/cloudsync"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

type syncOp int

const (
	syncSignIn syncOp = iota
	syncSignUp
	syncUpload
	syncMerge
	syncReplace
)

type syncModel struct {
	ctx    context.Context
	store  *store.Store
	client *cloudsync.Client
	width  int
	height int

	account    *store.CloudSession
	busy       bool
	lastSynced time.Time
	lastResult string

	formActive bool
	form       *huh.Form
	formOp     syncOp

	email    *string
	password *string
}

func newSyncModel(ctx context.Context, s *store.Store, c *cloudsync.Client) syncModel {
	email, password := "", ""
	return syncModel{
		ctx:      ctx,
		store:    s,
		client:   c,
		email:    &email,
		password: &password,
	}
}

func (m *syncModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type syncAccountMsg struct {
	account *store.CloudSession
}

// syncDoneMsg ends a network call. err is shown as the status line.
type syncDoneMsg struct {
	op      syncOp
	account *store.CloudSession
	text    string
	err     error
	changed bool
}

func (m syncModel) refresh() tea.Cmd {
	return func() tea.Msg {
		cs, err := m.client.Session()
		if err != nil {
			return errStatus("Load account", err)
		}
		return syncAccountMsg{account: cs}
	}
}

func (m syncModel) update(msg tea.Msg) (syncModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case syncAccountMsg:
		m.account = msg.account
		return m, nil

	case syncDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.lastResult = msg.err.Error()
			return m, func() tea.Msg { return statusMsg{text: msg.err.Error(), isError: true} }
		}
		if msg.account != nil && msg.account.AccessToken != "" {
			m.account = msg.account
		}
		if msg.op == syncUpload || msg.op == syncMerge || msg.op == syncReplace {
			m.lastSynced = m.store.Now()
		}
		m.lastResult = msg.text
		cmds := []tea.Cmd{func() tea.Msg { return statusMsg{text: msg.text} }}
		if msg.changed {
			cmds = append(cmds, func() tea.Msg { return sessionsChangedMsg{} })
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.SignIn):
			return m.showAuthForm(syncSignIn)
		case key.Matches(msg, keys.SignUp):
			return m.showAuthForm(syncSignUp)
		case key.Matches(msg, keys.SignOut):
			return m.signOut()
		case key.Matches(msg, keys.Upload):
			return m.run(syncUpload)
		case key.Matches(msg, keys.Merge):
			return m.run(syncMerge)
		case key.Matches(msg, keys.Replace):
			return m.run(syncReplace)
		}
	}
	return m, nil
}

func (m syncModel) showAuthForm(op syncOp) (syncModel, tea.Cmd) {
	if !m.client.Configured() {
		return m, func() tea.Msg { return statusMsg{text: cloudsync.ErrNotConfigured.Error(), isError: true} }
	}
	*m.password = ""
	title := "Sign in"
	if op == syncSignUp {
		title = "Create account"
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(m.email).Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return fmt.Errorf("enter an email address")
				}
				return nil
			}),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(m.password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("enter a password")
					}
					return nil
				}),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	m.formOp = op
	m.formActive = true
	return m, m.form.Init()
}

func (m syncModel) updateForm(msg tea.Msg) (syncModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.formActive = false
		m.form = nil
		*m.password = ""
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		return m.run(m.formOp)
	}
	return m, cmd
}

func (m syncModel) signOut() (syncModel, tea.Cmd) {
	if err := m.client.SignOut(); err != nil {
		return m, func() tea.Msg { return errStatus("Sign out", err) }
	}
	m.account = nil
	m.lastSynced = time.Time{}
	m.lastResult = ""
	return m, func() tea.Msg { return statusMsg{text: "Signed out."} }
}

// run starts op unless another call is in flight.
func (m syncModel) run(op syncOp) (syncModel, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true

	ctx, client, s := m.ctx, m.client, m.store
	email, password := strings.TrimSpace(*m.email), *m.password
	*m.password = ""

	return m, func() tea.Msg {
		switch op {
		case syncSignIn:
			cs, err := client.SignIn(ctx, email, password)
			if err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			return syncDoneMsg{op: op, account: cs, text: "Signed in as " + cs.User.Email}

		case syncSignUp:
			cs, err := client.SignUp(ctx, email, password)
			if err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			if cs.AccessToken == "" {
				return syncDoneMsg{op: op, text: "Account created. Confirm your email, then sign in."}
			}
			return syncDoneMsg{op: op, account: cs, text: "Account created and signed in."}

		case syncUpload:
			p, err := backup.Build(s, s.Now())
			if err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			if err := client.Upload(ctx, p); err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			return syncDoneMsg{op: op, text: fmt.Sprintf("Uploaded %d sessions.", len(p.Sessions))}

		case syncMerge, syncReplace:
			snap, err := client.Download(ctx)
			if err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			if snap == nil {
				return syncDoneMsg{op: op, text: "No cloud backup found."}
			}
			res, err := backup.Import(s, snap.Payload, backup.Options{Merge: op == syncMerge})
			if err != nil {
				return syncDoneMsg{op: op, err: err}
			}
			verb := "Merged"
			if op == syncReplace {
				verb = "Restored"
			}
			return syncDoneMsg{
				op:      op,
				changed: true,
				text: fmt.Sprintf("%s %d sessions from cloud. %d total.",
					verb, res.SessionsImported, res.TotalSessions),
			}
		}
		return syncDoneMsg{op: op}
	}
}

func (m syncModel) view() string {
	w := m.width - 4
	title := titleStyle.Render("Cloud Sync")

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	rows := []string{title, ""}

	if !m.client.Configured() {
		rows = append(rows,
			warningStyle.Render("Cloud sync is not configured."),
			mutedStyle.Render("Set DEVPULSE_SUPABASE_URL and DEVPULSE_SUPABASE_ANON_KEY to enable it."),
		)
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	if m.account == nil {
		rows = append(rows,
			mutedStyle.Render("Not signed in."),
			"",
			mutedStyle.Render("  i: sign in  u: sign up"),
		)
	} else {
		who := m.account.User.Email
		if who == "" {
			who = m.account.User.ID
		}
		rows = append(rows,
			setting("Account", who),
			setting("Last synced", timeutil.Ago(m.lastSynced, m.store.Now())),
		)
		if m.lastResult != "" {
			rows = append(rows, setting("Last result", m.lastResult))
		}
		rows = append(rows,
			"",
			mutedStyle.Render("  p: upload  m: download + merge  R: download + replace  o: sign out"),
		)
	}

	if m.busy {
		rows = append(rows, "", accentStyle.Render("Working…"))
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
