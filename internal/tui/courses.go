package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/domain"
)

type coursesLoadedMsg struct {
	courses []domain.CourseSummary
	err     error
}

type coursesModel struct {
	client  *api.Client
	courses []domain.CourseSummary
	cursor  int
	loading bool
	errMsg  string
	width   int
	height  int
}

func newCoursesModel(c *api.Client) coursesModel {
	return coursesModel{client: c, loading: true}
}

func (m coursesModel) Init() tea.Cmd {
	return m.load()
}

func (m coursesModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		courses, err := c.MyCourses(context.Background())
		return coursesLoadedMsg{courses: courses, err: err}
	}
}

func (m coursesModel) Update(msg tea.Msg) (coursesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case coursesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.courses = msg.courses
		m.errMsg = ""
		if m.cursor >= len(m.courses) {
			m.cursor = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.courses)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.courses) {
				id := m.courses[m.cursor].ID
				return m, func() tea.Msg { return openCourseMsg{id: id} }
			}
		case "r":
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m coursesModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render(fmt.Sprintf("── COURSES %d ──", len(m.courses))) + "\n")

	if m.loading && len(m.courses) == 0 {
		b.WriteString(" " + dimStyle.Render("loading courses...") + "\n")
		return b.String()
	}
	if m.errMsg != "" {
		b.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
		return b.String()
	}
	if len(m.courses) == 0 {
		b.WriteString("\n " + dimStyle.Render("no courses yet · press n to generate one from a file") + "\n")
		return b.String()
	}

	maxVisible := m.height - 3
	if maxVisible < 3 {
		maxVisible = 3
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}

	for i := start; i < len(m.courses) && i < start+maxVisible; i++ {
		c := m.courses[i]

		cursor := "  "
		titleStyle := normalStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			titleStyle = selectedStyle
		}

		countCol := metaStyle.Render(fmt.Sprintf("%3d modules", c.ModuleCount))
		dateCol := metaStyle.Render(formatTime(c.CreatedAt))

		titleWidth := m.width - 32
		if titleWidth < 20 {
			titleWidth = 20
		}
		title := titleStyle.Render(fmt.Sprintf("%-*s", titleWidth, truncStr(c.Title, titleWidth)))

		line := " " + cursor + title + "  " + countCol + "  " + dateCol
		if i == m.cursor {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}

		if i == m.cursor && c.Description != "" {
			descWidth := m.width - 6
			if descWidth < 20 {
				descWidth = 20
			}
			b.WriteString("     " + dimStyle.Render(truncStr(c.Description, descWidth)) + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}

func (m coursesModel) helpKeys() string {
	return helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("r", "refresh")
}
