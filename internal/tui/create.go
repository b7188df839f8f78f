package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/domain"
)

type createSection int

const (
	sectionFile createSection = iota
	sectionModel
	sectionEngine
	numSections
)

type createOptionsMsg struct {
	files   []domain.File
	models  map[string]domain.ModelOption
	engines map[string]domain.EngineOption
	err     error
}

type courseGeneratedMsg struct {
	course *domain.Course
	err    error
}

// createModel is the generate-a-course form: pick an uploaded file, an AI
// model, and a PDF engine, then submit.
type createModel struct {
	client *api.Client

	files      []domain.File
	modelIDs   []string // sorted keys for stable cycling
	engineIDs  []string
	models     map[string]domain.ModelOption
	engines    map[string]domain.EngineOption
	fileCursor int
	modelIdx   int
	engineIdx  int
	focus      createSection

	loading    bool
	submitting bool
	errMsg     string
	statusMsg  string
	width      int
	height     int
}

func newCreateModel(c *api.Client) createModel {
	return createModel{client: c, loading: true}
}

func (m createModel) Init() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		files, err := c.MyFiles(ctx)
		if err != nil {
			return createOptionsMsg{err: err}
		}
		models, err := c.AvailableModels(ctx)
		if err != nil {
			return createOptionsMsg{err: err}
		}
		engines, err := c.AvailableEngines(ctx)
		if err != nil {
			return createOptionsMsg{err: err}
		}
		return createOptionsMsg{files: files, models: models, engines: engines}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m createModel) Update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case createOptionsMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.files = msg.files
		m.models = msg.models
		m.engines = msg.engines
		m.modelIDs = sortedKeys(msg.models)
		m.engineIDs = sortedKeys(msg.engines)
		m.errMsg = ""
		if m.fileCursor >= len(m.files) {
			m.fileCursor = 0
		}
		m.modelIdx = 0
		m.engineIdx = 0
		return m, nil

	case courseGeneratedMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.statusMsg = ""
		id := msg.course.ID
		return m, func() tea.Msg { return openCourseMsg{id: id} }

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		m.errMsg = ""
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "tab", "down":
			m.focus = (m.focus + 1) % numSections
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numSections) % numSections
		case "j":
			if m.focus == sectionFile && m.fileCursor < len(m.files)-1 {
				m.fileCursor++
			}
		case "k":
			if m.focus == sectionFile && m.fileCursor > 0 {
				m.fileCursor--
			}
		case "h", "l":
			m.cycle(msg.String() == "l")
		case "esc":
			return m, func() tea.Msg { return showCoursesMsg{} }
		}
	}
	return m, nil
}

func (m *createModel) cycle(forward bool) {
	delta := 1
	if !forward {
		delta = -1
	}
	switch m.focus {
	case sectionModel:
		if n := len(m.modelIDs); n > 0 {
			m.modelIdx = (m.modelIdx + delta + n) % n
		}
	case sectionEngine:
		if n := len(m.engineIDs); n > 0 {
			m.engineIdx = (m.engineIdx + delta + n) % n
		}
	}
}

func (m createModel) submit() (createModel, tea.Cmd) {
	if len(m.files) == 0 || m.fileCursor >= len(m.files) {
		m.errMsg = "upload a file first (tab 2)"
		return m, nil
	}
	if len(m.modelIDs) == 0 || len(m.engineIDs) == 0 {
		m.errMsg = "no models or engines available"
		return m, nil
	}

	m.submitting = true
	m.statusMsg = "generating course..."
	c := m.client
	fileID := m.files[m.fileCursor].ID
	opts := api.GenerateOptions{
		AIModel:   m.modelIDs[m.modelIdx],
		PDFEngine: m.engineIDs[m.engineIdx],
	}
	return m, func() tea.Msg {
		course, err := c.CreateCourseFromFile(context.Background(), fileID, opts)
		return courseGeneratedMsg{course: course, err: err}
	}
}

func (m createModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render("── GENERATE COURSE ──") + "\n")

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading options...") + "\n")
		return b.String()
	}

	// File section
	marker := "  "
	if m.focus == sectionFile {
		marker = accentStyle.Render("▸") + " "
	}
	b.WriteString(" " + marker + inputPromptStyle.Render("file") + dimStyle.Render(" (j/k)") + "\n")
	if len(m.files) == 0 {
		b.WriteString("     " + dimStyle.Render("no files uploaded yet") + "\n")
	}
	for i, f := range m.files {
		cursor := "  "
		style := dimStyle
		if i == m.fileCursor {
			cursor = accentStyle.Render("·") + " "
			style = normalStyle
			if m.focus == sectionFile {
				style = selectedStyle
			}
		}
		b.WriteString("   " + cursor + style.Render(truncStr(f.OriginalName, max(m.width-24, 20))) +
			"  " + metaStyle.Render(formatBytes(f.Size)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderChoice(sectionModel, "model", m.modelIDs, m.modelIdx, func(id string) string {
		return m.models[id].Name
	}))
	b.WriteString(m.renderChoice(sectionEngine, "engine", m.engineIDs, m.engineIdx, func(id string) string {
		return m.engines[id].Name
	}))

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("generating course, this can take a while...") + "\n")
	case m.errMsg != "":
		b.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
	case m.statusMsg != "":
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}

func (m createModel) renderChoice(s createSection, label string, ids []string, idx int, name func(string) string) string {
	marker := "  "
	if m.focus == s {
		marker = accentStyle.Render("▸") + " "
	}
	value := dimStyle.Render("(none)")
	if idx < len(ids) {
		display := name(ids[idx])
		if display == "" {
			display = ids[idx]
		}
		style := normalStyle
		if m.focus == s {
			style = selectedStyle
		}
		value = style.Render(display) + metaStyle.Render(fmt.Sprintf("  %d/%d", idx+1, len(ids)))
	}
	return " " + marker + inputPromptStyle.Render(label) + dimStyle.Render(" (h/l)") + "  " + value + "\n"
}

func (m createModel) helpKeys() string {
	return helpEntry("tab", "section") + "  " + helpEntry("j/k", "file") + "  " + helpEntry("h/l", "cycle") + "  " + helpEntry("ctrl+s", "generate") + "  " + helpEntry("esc", "cancel")
}
