package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/domain"
	"github.com/coursetide/coursetide/pkg/session"
)

// profileState is the state machine for profile interactions.
type profileState int

const (
	profileNormal profileState = iota
	profileEditing
	profileLoggingOut // logout confirmation
)

type profileField int

const (
	profileFieldUsername profileField = iota
	profileFieldEmail
	profileFieldPassword
	numProfileFields
)

// -- messages --

type statsLoadedMsg struct {
	stats    *domain.UserStats
	usage    []domain.ModelUsage
	activity []domain.Activity
	err      error
}

type profileSavedMsg struct {
	profile *domain.Profile
	err     error
}

// -- model --

type settingsModel struct {
	client  *api.Client
	session *session.Manager

	state  profileState
	fields [numProfileFields]string
	focus  profileField

	stats    *domain.UserStats
	usage    []domain.ModelUsage
	activity []domain.Activity

	statusMsg string
	errMsg    string
	width     int
	height    int
}

func newSettingsModel(c *api.Client, mgr *session.Manager) settingsModel {
	return settingsModel{client: c, session: mgr}
}

func (m settingsModel) Init() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := c.UserStats(ctx)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		// Usage and activity enrich the page but are not required for it.
		usage, _ := c.ModelUsage(ctx)
		activity, _ := c.RecentActivity(ctx)
		return statsLoadedMsg{stats: stats, usage: usage, activity: activity}
	}
}

func (m settingsModel) isEditing() bool {
	return m.state != profileNormal
}

func (m settingsModel) Update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.stats = msg.stats
		m.usage = msg.usage
		m.activity = msg.activity
		m.errMsg = ""
		return m, nil

	case profileSavedMsg:
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.session.SetProfile(msg.profile)
		m.state = profileNormal
		m.statusMsg = "profile saved"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		switch m.state {
		case profileEditing:
			return m.updateEditing(msg)
		case profileLoggingOut:
			return m.updateLoggingOut(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m settingsModel) updateNormal(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "e":
		m.state = profileEditing
		m.focus = profileFieldUsername
		m.fields = [numProfileFields]string{}
		if p := m.session.Profile(); p != nil {
			m.fields[profileFieldUsername] = p.Username
			m.fields[profileFieldEmail] = p.Email
		}
	case "x":
		m.state = profileLoggingOut
	case "r":
		return m, m.Init()
	}
	return m, nil
}

func (m settingsModel) updateEditing(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % numProfileFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numProfileFields) % numProfileFields
	case "enter":
		username := strings.TrimSpace(m.fields[profileFieldUsername])
		email := strings.TrimSpace(m.fields[profileFieldEmail])
		if username == "" || email == "" {
			m.errMsg = "username and email are required"
			return m, nil
		}
		upd := api.ProfileUpdate{
			Username: username,
			Email:    email,
			Password: m.fields[profileFieldPassword],
		}
		c := m.client
		return m, func() tea.Msg {
			profile, err := c.UpdateProfile(context.Background(), upd)
			return profileSavedMsg{profile: profile, err: err}
		}
	case "esc":
		m.state = profileNormal
		m.errMsg = ""
	default:
		m.errMsg = ""
		f := &m.fields[m.focus]
		*f = editRune(*f, msg.String())
	}
	return m, nil
}

func (m settingsModel) updateLoggingOut(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.state = profileNormal
		mgr := m.session
		return m, func() tea.Msg {
			return sessionEventMsg{event: mgr.Logout(), notice: "signed out"}
		}
	case "n", "N", "esc":
		m.state = profileNormal
	}
	return m, nil
}

func (m settingsModel) View() string {
	var b strings.Builder

	// -- Profile section --
	b.WriteString(" " + sectionHeaderStyle.Render("── PROFILE ──") + "\n")

	if m.state == profileEditing {
		b.WriteString(m.renderEditForm())
	} else if p := m.session.Profile(); p != nil {
		b.WriteString("   " + selectedStyle.Render(p.Username) + "\n")
		b.WriteString("   " + dimStyle.Render(p.Email) + "\n")
		if m.state == profileLoggingOut {
			b.WriteString("   " + warnStyle.Render("sign out? ") +
				accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n " + errStyle.Render(m.errMsg) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n " + statusStyle.Render(m.statusMsg) + "\n")
	}

	// -- Stats section --
	if m.stats != nil {
		b.WriteString("\n " + sectionHeaderStyle.Render("── USAGE ──") + "\n")
		rows := []struct {
			label string
			value string
		}{
			{"files", fmt.Sprintf("%d", m.stats.TotalFiles)},
			{"courses", fmt.Sprintf("%d", m.stats.TotalCourses)},
			{"model calls", fmt.Sprintf("%d", m.stats.TotalModelCalls)},
			{"tokens used", fmt.Sprintf("%d", m.stats.TotalTokensUsed)},
		}
		for _, r := range rows {
			b.WriteString("   " + metaStyle.Render(fmt.Sprintf("%-12s", r.label)) + normalStyle.Render(r.value) + "\n")
		}
	}

	if len(m.usage) > 0 {
		b.WriteString("\n " + sectionHeaderStyle.Render("── MODELS ──") + "\n")
		for _, u := range m.usage {
			b.WriteString("   " + normalStyle.Render(fmt.Sprintf("%-24s", truncStr(u.ModelName, 24))) +
				metaStyle.Render(fmt.Sprintf("%s tokens · %d calls", u.TotalTokens, u.TotalCalls)) + "\n")
		}
	}

	if len(m.activity) > 0 {
		b.WriteString("\n " + sectionHeaderStyle.Render("── RECENT ACTIVITY ──") + "\n")
		maxRows := len(m.activity)
		if maxRows > 8 {
			maxRows = 8
		}
		for _, a := range m.activity[:maxRows] {
			when := ""
			if a.CreatedAt != nil {
				when = formatTime(*a.CreatedAt)
			}
			b.WriteString("   " + dimStyle.Render(fmt.Sprintf("%-20s", a.ActionType)) +
				metaStyle.Render(when) + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}

func (m settingsModel) renderEditForm() string {
	var b strings.Builder
	labels := [numProfileFields]string{"username", "email", "new password"}
	for f := profileField(0); f < numProfileFields; f++ {
		value := m.fields[f]
		if f == profileFieldPassword {
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
	b.WriteString("   " + dimStyle.Render("leave password blank to keep it") + "\n")
	return b.String()
}

func (m settingsModel) helpKeys() string {
	switch m.state {
	case profileEditing:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "save") + "  " + helpEntry("esc", "cancel")
	case profileLoggingOut:
		return helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel")
	default:
		return helpEntry("e", "edit profile") + "  " + helpEntry("x", "sign out") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}
}
