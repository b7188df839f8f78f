package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/session"
)

type view int

const (
	viewLogin view = iota
	viewCourses
	viewEditor
	viewFiles
	viewCreate
	viewSettings
)

// sessionRestoredMsg carries the startup restore outcome.
type sessionRestoredMsg struct {
	event session.Event
}

// sessionEventMsg carries a navigation event produced by a sub-model
// (login success, logout). The notice is shown on the status line.
type sessionEventMsg struct {
	event  session.Event
	notice string
}

// authExpiredMsg signals that a request was rejected for a bad credential.
// Any number of these may arrive for one expiry; the session manager
// collapses them into a single teardown.
type authExpiredMsg struct{}

// openCourseMsg opens the editor on a course.
type openCourseMsg struct {
	id string
}

// App is the root Bubbletea model.
type App struct {
	client  *api.Client
	session *session.Manager

	view      view
	restoring bool
	notice    string
	noticeErr bool

	login    loginModel
	courses  coursesModel
	editor   editorModel
	files    filesModel
	create   createModel
	settings settingsModel

	helpOpen bool
	width    int
	height   int
	frame    int // logo shimmer animation frame
}

// NewApp creates the TUI application.
func NewApp(c *api.Client, mgr *session.Manager) App {
	return App{
		client:    c,
		session:   mgr,
		restoring: true,
		login:     newLoginModel(c, mgr),
		courses:   newCoursesModel(c),
		editor:    newEditorModel(c),
		files:     newFilesModel(c),
		create:    newCreateModel(c),
		settings:  newSettingsModel(c, mgr),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.restoreSession())
}

func (a App) restoreSession() tea.Cmd {
	mgr, c := a.session, a.client
	return func() tea.Msg {
		return sessionRestoredMsg{event: mgr.Restore(context.Background(), c)}
	}
}

// authGuard turns an unauthorized request error into the expiry message.
// Sub-models attach it to every load failure; other error kinds produce no
// message and stay where they happened.
func authGuard(err error) tea.Cmd {
	if !api.IsUnauthorized(err) {
		return nil
	}
	return func() tea.Msg { return authExpiredMsg{} }
}

// navigate switches to the target view and starts its load. Switching to
// the view already shown is a no-op so repeated key presses do not reload.
// Protected views are refused while no session is held.
func (a *App) navigate(v view) tea.Cmd {
	if v == a.view {
		return nil
	}
	if v != viewLogin && a.session.State() != session.StateAuthenticated {
		return nil
	}
	a.view = v
	switch v {
	case viewCourses:
		return a.courses.Init()
	case viewFiles:
		return a.files.Init()
	case viewSettings:
		return a.settings.Init()
	case viewCreate:
		return a.create.Init()
	case viewLogin:
		a.login = newLoginModel(a.client, a.session)
	}
	return nil
}

func (a *App) applyEvent(ev session.Event, notice string, isErr bool) tea.Cmd {
	if notice != "" {
		a.notice = notice
		a.noticeErr = isErr
	}
	switch ev {
	case session.EventShowWorkspace:
		return a.navigate(viewCourses)
	case session.EventShowLogin:
		return a.navigate(viewLogin)
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + status(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.login, _ = a.login.Update(bodyMsg)
		a.courses, _ = a.courses.Update(bodyMsg)
		a.editor, _ = a.editor.Update(bodyMsg)
		a.files, _ = a.files.Update(bodyMsg)
		a.create, _ = a.create.Update(bodyMsg)
		a.settings, _ = a.settings.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionRestoredMsg:
		a.restoring = false
		notice := ""
		if msg.event == session.EventShowWorkspace {
			if p := a.session.Profile(); p != nil {
				notice = "welcome back, " + p.Username
			}
		}
		return a, a.applyEvent(msg.event, notice, false)

	case sessionEventMsg:
		return a, a.applyEvent(msg.event, msg.notice, false)

	case authExpiredMsg:
		ev := a.session.HandleUnauthorized()
		if ev == session.EventNone {
			return a, nil
		}
		return a, a.applyEvent(ev, "session expired, sign in again", true)

	case showCoursesMsg:
		a.view = viewCourses
		return a, a.courses.Init()

	case openCourseMsg:
		if a.session.State() != session.StateAuthenticated {
			return a, nil
		}
		a.view = viewEditor
		a.editor = newEditorModel(a.client)
		a.editor.width = a.width
		a.editor.height = a.height - 5
		return a, a.editor.open(msg.id)

	case tea.KeyMsg:
		a.notice = ""
		a.noticeErr = false

		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "h", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			}
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		if a.restoring {
			return a, nil
		}

		// Global keys (only when not typing into a field)
		if !a.isEditing() {
			switch msg.String() {
			case "h":
				a.helpOpen = true
				return a, nil
			case "q":
				return a, tea.Quit
			case "1":
				return a, a.navigate(viewCourses)
			case "2":
				return a, a.navigate(viewFiles)
			case "3":
				return a, a.navigate(viewSettings)
			case "n":
				return a, a.navigate(viewCreate)
			case "esc":
				if a.view == viewEditor {
					a.view = viewCourses
					return a, a.courses.Init()
				}
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewCourses:
		a.courses, cmd = a.courses.Update(msg)
	case viewEditor:
		a.editor, cmd = a.editor.Update(msg)
	case viewFiles:
		a.files, cmd = a.files.Update(msg)
	case viewCreate:
		a.create, cmd = a.create.Update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin:
		return true
	case viewEditor:
		return a.editor.isEditing()
	case viewCreate:
		return true
	case viewFiles:
		return a.files.isEditing()
	case viewSettings:
		return a.settings.isEditing()
	}
	return false
}

func (a App) View() string {
	// Header: centered shimmer logo + identity line
	logo := renderShimmerLogo(a.frame)
	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	identity := ""
	if p := a.session.Profile(); p != nil {
		identity = metaStyle.Render(p.Username + " · " + p.Email)
	}
	if identity != "" {
		idWidth := lipgloss.Width(identity)
		idPad := (a.width - idWidth) / 2
		if idPad < 0 {
			idPad = 0
		}
		header += "\n" + strings.Repeat(" ", idPad) + identity
	} else {
		header += "\n"
	}

	// Tab bar: 1 Courses  2 Files  3 Settings
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Courses", viewCourses},
		{"2", "Files", viewFiles},
		{"3", "Settings", viewSettings},
	}

	authed := a.session.State() == session.StateAuthenticated
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		switch {
		case t.v == a.view || (t.v == viewCourses && a.view == viewEditor):
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		case !authed:
			label = metaStyle.Render(t.key + " " + t.name)
		default:
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	centeredTabs := tabBar.String()

	// Body + context help
	var body string
	var help string
	switch {
	case a.restoring:
		body = " " + dimStyle.Render("restoring session...")
		help = " " + helpEntry("ctrl+c", "quit")
	case a.view == viewLogin:
		body = a.login.View()
		help = " " + a.login.helpKeys()
	case a.view == viewCourses:
		body = a.courses.View()
		help = " " + helpEntry("1-3", "tabs") + "  " + a.courses.helpKeys() + "  " + helpEntry("n", "generate") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	case a.view == viewEditor:
		body = a.editor.View()
		help = " " + a.editor.helpKeys()
	case a.view == viewFiles:
		body = a.files.View()
		help = " " + helpEntry("1-3", "tabs") + "  " + a.files.helpKeys()
	case a.view == viewCreate:
		body = a.create.View()
		help = " " + a.create.helpKeys()
	case a.view == viewSettings:
		body = a.settings.View()
		help = " " + helpEntry("1-3", "tabs") + "  " + a.settings.helpKeys()
	}

	// Help overlay
	if a.helpOpen {
		body = helpView()
		help = " " + helpEntry("esc", "close")
	}

	// Status line
	status := ""
	if a.notice != "" {
		if a.noticeErr {
			status = " " + errStyle.Render(a.notice)
		} else {
			status = " " + statusStyle.Render(a.notice)
		}
	}

	// Chrome budget: header(2) + tabs(1) + status(1) + help(1) = 5 lines + body
	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return header + "\n" + centeredTabs + "\n" + body + "\n" + status + "\n" + help
}
