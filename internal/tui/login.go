package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/session"
)

type loginField int

const (
	loginFieldName loginField = iota
	loginFieldEmail
	loginFieldPassword
	numLoginFields
)

type loginDoneMsg struct {
	err error
}

type registerDoneMsg struct {
	err error
}

// loginModel is the public entry form. It covers both sign-in and account
// creation; ctrl+r flips between the two.
type loginModel struct {
	api     *api.Client
	session *session.Manager

	register   bool
	fields     [numLoginFields]string
	focus      loginField
	submitting bool
	errMsg     string
	width      int
	height     int
}

func newLoginModel(c *api.Client, mgr *session.Manager) loginModel {
	return loginModel{api: c, session: mgr}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

// visible reports whether a field is part of the current form. The email
// field only exists when registering.
func (m loginModel) visible(f loginField) bool {
	return f != loginFieldEmail || m.register
}

func (m loginModel) nextField(f loginField, delta int) loginField {
	for {
		f = (f + loginField(delta) + numLoginFields) % numLoginFields
		if m.visible(f) {
			return f
		}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, nil
		}
		return m, func() tea.Msg {
			return sessionEventMsg{event: session.EventShowWorkspace, notice: "signed in"}
		}

	case registerDoneMsg:
		if msg.err != nil {
			m.submitting = false
			m.errMsg = api.UserMessage(msg.err)
			return m, nil
		}
		// Account created; sign in with the same credentials.
		return m, m.loginCmd()

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = m.nextField(m.focus, 1)
		case "shift+tab", "up":
			m.focus = m.nextField(m.focus, -1)
		case "ctrl+r":
			m.register = !m.register
			m.errMsg = ""
			if !m.visible(m.focus) {
				m.focus = loginFieldName
			}
		case "enter":
			if m.focus == loginFieldPassword {
				return m.submit()
			}
			m.focus = m.nextField(m.focus, 1)
		default:
			m.errMsg = ""
			f := &m.fields[m.focus]
			*f = editRune(*f, msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	name := strings.TrimSpace(m.fields[loginFieldName])
	password := m.fields[loginFieldPassword]
	if name == "" || password == "" {
		m.errMsg = "username and password are required"
		return m, nil
	}
	if m.register && strings.TrimSpace(m.fields[loginFieldEmail]) == "" {
		m.errMsg = "email is required"
		return m, nil
	}

	m.submitting = true
	if m.register {
		return m, m.registerCmd()
	}
	return m, m.loginCmd()
}

func (m loginModel) loginCmd() tea.Cmd {
	c, mgr := m.api, m.session
	name := strings.TrimSpace(m.fields[loginFieldName])
	password := m.fields[loginFieldPassword]
	return func() tea.Msg {
		ctx := context.Background()
		token, err := c.Login(ctx, name, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if _, err := mgr.Login(token, nil); err != nil {
			return loginDoneMsg{err: err}
		}
		// Best-effort: the workspace is usable without the profile line.
		if profile, err := c.Profile(ctx); err == nil {
			mgr.SetProfile(profile)
		}
		return loginDoneMsg{}
	}
}

func (m loginModel) registerCmd() tea.Cmd {
	c := m.api
	name := strings.TrimSpace(m.fields[loginFieldName])
	email := strings.TrimSpace(m.fields[loginFieldEmail])
	password := m.fields[loginFieldPassword]
	return func() tea.Msg {
		return registerDoneMsg{err: c.Register(context.Background(), name, email, password)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder

	if m.register {
		b.WriteString(" " + sectionHeaderStyle.Render("── CREATE ACCOUNT ──") + "\n\n")
	} else {
		b.WriteString(" " + sectionHeaderStyle.Render("── SIGN IN ──") + "\n\n")
	}

	labels := [numLoginFields]string{"username", "email", "password"}
	for f := loginField(0); f < numLoginFields; f++ {
		if !m.visible(f) {
			continue
		}
		value := m.fields[f]
		if f == loginFieldPassword {
			value = strings.Repeat("*", len([]rune(value)))
		}
		cursor := "  "
		label := metaStyle.Render(labels[f] + ":")
		if f == m.focus {
			cursor = accentStyle.Render("▸") + " "
			label = inputPromptStyle.Render(labels[f] + ":")
			value += accentStyle.Render("█")
		}
		b.WriteString(" " + cursor + label + " " + value + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case m.errMsg != "":
		b.WriteString(" " + errStyle.Render(m.errMsg))
	case m.register:
		b.WriteString(" " + dimStyle.Render("ctrl+r to sign in instead"))
	default:
		b.WriteString(" " + dimStyle.Render("ctrl+r to create an account"))
	}

	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+r", "switch") + "  " + helpEntry("ctrl+c", "quit")
}
