package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coursetide/coursetide/pkg/domain"
	"github.com/coursetide/coursetide/pkg/session"
)

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	store := session.NewStoreAt(filepath.Join(t.TempDir(), "token"))
	return session.NewManager(store)
}

// newTestApp returns a signed-in app sitting on the course list, past the
// startup restore.
func newTestApp(t *testing.T) App {
	t.Helper()
	mgr := newTestManager(t)
	if _, err := mgr.Login("test-token", &domain.Profile{Username: "carol", Email: "carol@example.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	a := NewApp(nil, mgr)
	a.restoring = false
	a.view = viewCourses
	a.width = 80
	a.height = 30
	return a
}

func newLoggedOutApp(t *testing.T) App {
	t.Helper()
	a := NewApp(nil, newTestManager(t))
	a.restoring = false
	a.width = 80
	a.height = 30
	return a
}

func TestAppTabSwitching(t *testing.T) {
	tests := []struct {
		key      string
		wantView view
	}{
		{"2", viewFiles},
		{"3", viewSettings},
		{"n", viewCreate},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			app := newTestApp(t)
			model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tc.key)})
			a := model.(App)
			if a.view != tc.wantView {
				t.Errorf("after key %q: expected view=%d, got %d", tc.key, tc.wantView, a.view)
			}
		})
	}
}

func TestAppTabKeyBackToCourses(t *testing.T) {
	a := newTestApp(t)
	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	a = model.(App)
	if a.view != viewFiles {
		t.Fatalf("expected viewFiles after '2', got %d", a.view)
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	a = model.(App)
	if a.view != viewCourses {
		t.Errorf("expected viewCourses after '1', got %d", a.view)
	}
}

func TestAppNavigateRefusedWhileLoggedOut(t *testing.T) {
	a := newLoggedOutApp(t)
	for _, v := range []view{viewCourses, viewFiles, viewSettings, viewCreate} {
		if cmd := a.navigate(v); cmd != nil {
			t.Errorf("navigate(%d) while logged out: expected nil cmd", v)
		}
		if a.view != viewLogin {
			t.Errorf("navigate(%d) while logged out: expected viewLogin, got %d", v, a.view)
		}
	}
}

func TestAppNavigateSameViewNoReload(t *testing.T) {
	a := newTestApp(t)
	if cmd := a.navigate(viewCourses); cmd != nil {
		t.Error("expected nil cmd when navigating to the current view")
	}
	if a.view != viewCourses {
		t.Errorf("expected view unchanged, got %d", a.view)
	}
}

func TestAppSessionRestoredShowsWorkspace(t *testing.T) {
	a := newTestApp(t)
	a.view = viewLogin
	a.restoring = true

	model, _ := a.Update(sessionRestoredMsg{event: session.EventShowWorkspace})
	a = model.(App)

	if a.restoring {
		t.Error("expected restoring=false after sessionRestoredMsg")
	}
	if a.view != viewCourses {
		t.Errorf("expected viewCourses, got %d", a.view)
	}
	if !strings.Contains(a.notice, "carol") {
		t.Errorf("expected welcome notice with username, got %q", a.notice)
	}
}

func TestAppSessionRestoredShowsLogin(t *testing.T) {
	a := newLoggedOutApp(t)
	a.restoring = true

	model, _ := a.Update(sessionRestoredMsg{event: session.EventShowLogin})
	a = model.(App)

	if a.restoring {
		t.Error("expected restoring=false after sessionRestoredMsg")
	}
	if a.view != viewLogin {
		t.Errorf("expected viewLogin, got %d", a.view)
	}
}

func TestAppAuthExpiredShowsLogin(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(authExpiredMsg{})
	a = model.(App)

	if a.view != viewLogin {
		t.Fatalf("expected viewLogin after authExpiredMsg, got %d", a.view)
	}
	if !a.noticeErr || !strings.Contains(a.notice, "session expired") {
		t.Errorf("expected error notice about expiry, got %q (err=%v)", a.notice, a.noticeErr)
	}

	// A second expiry from a parallel request changes nothing.
	model, cmd := a.Update(authExpiredMsg{})
	a = model.(App)
	if cmd != nil {
		t.Error("expected nil cmd on repeated authExpiredMsg")
	}
	if a.view != viewLogin {
		t.Errorf("expected viewLogin to persist, got %d", a.view)
	}
}

func TestAppOpenCourseSwitchesToEditor(t *testing.T) {
	a := newTestApp(t)

	model, cmd := a.Update(openCourseMsg{id: "course-1"})
	a = model.(App)

	if a.view != viewEditor {
		t.Fatalf("expected viewEditor after openCourseMsg, got %d", a.view)
	}
	if cmd == nil {
		t.Error("expected load cmd after openCourseMsg")
	}
}

func TestAppOpenCourseRefusedWhileLoggedOut(t *testing.T) {
	a := newLoggedOutApp(t)
	model, _ := a.Update(openCourseMsg{id: "course-1"})
	a = model.(App)
	if a.view != viewLogin {
		t.Errorf("expected viewLogin to persist, got %d", a.view)
	}
}

func TestAppShowCoursesReturnsToList(t *testing.T) {
	a := newTestApp(t)
	a.view = viewEditor

	model, _ := a.Update(showCoursesMsg{})
	a = model.(App)

	if a.view != viewCourses {
		t.Errorf("expected viewCourses after showCoursesMsg, got %d", a.view)
	}
}

func TestAppHelpOverlay(t *testing.T) {
	a := newTestApp(t)

	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	a = model.(App)
	if !a.helpOpen {
		t.Fatal("expected helpOpen=true after 'h'")
	}

	// Navigation keys are captured while the overlay is up.
	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	a = model.(App)
	if a.view != viewCourses {
		t.Errorf("expected view unchanged under help overlay, got %d", a.view)
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = model.(App)
	if a.helpOpen {
		t.Error("expected helpOpen=false after esc")
	}
}

func TestAppGlobalQuitOnQ(t *testing.T) {
	a := newTestApp(t)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command on 'q', got nil")
	}
}

func TestAppQTypesIntoLoginField(t *testing.T) {
	a := newLoggedOutApp(t)

	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	a = model.(App)

	if a.login.fields[loginFieldName] != "q" {
		t.Errorf("expected 'q' typed into the username field, got %q", a.login.fields[loginFieldName])
	}
}

func TestAppRestoringSwallowsKeys(t *testing.T) {
	a := newTestApp(t)
	a.restoring = true

	model, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	a = model.(App)

	if a.view != viewCourses {
		t.Errorf("expected view unchanged while restoring, got %d", a.view)
	}
	if cmd != nil {
		t.Error("expected nil cmd while restoring")
	}
}

func TestAppCtrlCAlwaysQuits(t *testing.T) {
	a := newLoggedOutApp(t) // login view is always editing
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command on ctrl+c, got nil")
	}
}

func TestAppShimmerFrameIncrements(t *testing.T) {
	a := newTestApp(t)
	initial := a.frame

	model, _ := a.Update(shimmerTickMsg{})
	a = model.(App)

	if a.frame != initial+1 {
		t.Errorf("expected frame=%d after shimmerTickMsg, got %d", initial+1, a.frame)
	}
}

func TestAppViewRendersTabBar(t *testing.T) {
	a := newTestApp(t)
	model, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	a = model.(App)

	view := a.View()
	for _, tab := range []string{"Courses", "Files", "Settings"} {
		if !strings.Contains(view, tab) {
			t.Errorf("expected %q tab in app view, got:\n%s", tab, view)
		}
	}
	if !strings.Contains(view, "carol") {
		t.Errorf("expected identity line with username, got:\n%s", view)
	}
}

func TestAppViewFitsTerminal(t *testing.T) {
	termHeight := 30
	a := newTestApp(t)
	model, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: termHeight})
	a = model.(App)

	view := a.View()
	lines := strings.Split(view, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) > termHeight {
		t.Errorf("App.View() has %d lines, want at most %d (terminal height)", len(lines), termHeight)
		for i, line := range lines {
			t.Logf("  %2d: %q", i, line)
		}
	}
}

func TestAppKeyClearsNotice(t *testing.T) {
	a := newTestApp(t)
	a.notice = "signed in"

	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	a = model.(App)

	if a.notice != "" {
		t.Errorf("expected notice cleared on key press, got %q", a.notice)
	}
}
