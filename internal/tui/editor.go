package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/editor"
)

type editorMode int

const (
	editorModeList editorMode = iota
	editorModeField          // typing into a single field
	editorModeTakeaways      // takeaway list of the selected module
	editorModeConfirmDelete  // y/n before removing a module
	editorModeConfirmDiscard // y/n before leaving with unsaved edits
	editorModeConfirmExport  // y/n before a markdown export with unsaved edits
)

// editTarget identifies which field the input buffer writes back to.
type editTarget int

const (
	targetTitle editTarget = iota
	targetDescription
	targetHeading
	targetSummary
	targetTakeaway
)

// Fixed rows above the module list.
const (
	rowTitle = iota
	rowDescription
	moduleRowBase
)

// showCoursesMsg returns the app to the course list. The editor emits it
// when closing; the generate form emits it on cancel.
type showCoursesMsg struct{}

type editorLoadedMsg struct {
	err error
}

type editorSavedMsg struct {
	err error
}

type exportedMsg struct {
	what string // "json" or "markdown"
	path string
	err  error
}

// editorModel drives the course editor. All document state lives in the
// editor.Editor; this model only holds cursor and input state.
type editorModel struct {
	client *api.Client
	ed     *editor.Editor

	mode      editorMode
	cursor    int // row index: title, description, then modules
	tkCursor  int // takeaway index within the selected module
	target    editTarget
	input     string
	loading   bool
	saving    bool
	errMsg    string
	statusMsg string
	width     int
	height    int
}

func newEditorModel(c *api.Client) editorModel {
	return editorModel{client: c}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

// open loads the course and resets cursor state.
func (m *editorModel) open(id string) tea.Cmd {
	m.ed = editor.New(m.client, id)
	m.mode = editorModeList
	m.cursor = rowTitle
	m.loading = true
	m.errMsg = ""
	m.statusMsg = ""
	ed := m.ed
	return func() tea.Msg {
		return editorLoadedMsg{err: ed.Load(context.Background())}
	}
}

func (m editorModel) isEditing() bool {
	if m.mode != editorModeList {
		return true
	}
	// Unsaved edits must pass esc through so the discard confirmation runs.
	return m.ed != nil && m.ed.Dirty()
}

func (m editorModel) moduleCount() int {
	if m.ed == nil || m.ed.Course() == nil {
		return 0
	}
	return len(m.ed.Course().Modules)
}

// selectedModuleID resolves the cursor to a module identity, or "".
func (m editorModel) selectedModuleID() string {
	i := m.cursor - moduleRowBase
	if m.ed == nil || m.ed.Course() == nil || i < 0 || i >= m.moduleCount() {
		return ""
	}
	return m.ed.Course().Modules[i].ID
}

func (m editorModel) Update(msg tea.Msg) (editorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.errMsg = ""
		return m, nil

	case editorSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.errMsg = ""
		m.statusMsg = "saved"
		if m.cursor >= moduleRowBase+m.moduleCount() {
			m.cursor = rowTitle
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.statusMsg = fmt.Sprintf("%s copied and written to %s", msg.what, msg.path)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.ed == nil || m.ed.Course() == nil {
			return m, nil
		}
		switch m.mode {
		case editorModeField:
			return m.updateField(msg)
		case editorModeTakeaways:
			return m.updateTakeaways(msg)
		case editorModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case editorModeConfirmDiscard:
			return m.updateConfirmDiscard(msg)
		case editorModeConfirmExport:
			return m.updateConfirmExport(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m editorModel) updateList(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	maxRow := moduleRowBase + m.moduleCount() - 1
	if maxRow < rowDescription {
		maxRow = rowDescription
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < maxRow {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "J":
		// Move the selected module one position down.
		i := m.cursor - moduleRowBase
		if !m.saving && i >= 0 && i < m.moduleCount()-1 {
			mods := m.ed.Course().Modules
			m.ed.MoveModule(mods[i].ID, mods[i+1].ID)
			m.cursor++
		}
	case "K":
		// Move the selected module one position up.
		i := m.cursor - moduleRowBase
		if !m.saving && i >= 1 && i < m.moduleCount() {
			mods := m.ed.Course().Modules
			m.ed.MoveModule(mods[i].ID, mods[i-1].ID)
			m.cursor--
		}

	case "enter":
		if m.saving {
			return m, nil
		}
		switch {
		case m.cursor == rowTitle:
			return m.startEdit(targetTitle, m.ed.Course().Title), nil
		case m.cursor == rowDescription:
			return m.startEdit(targetDescription, m.ed.Course().Description), nil
		default:
			if i := m.cursor - moduleRowBase; i >= 0 && i < m.moduleCount() {
				return m.startEdit(targetHeading, m.ed.Course().Modules[i].Heading), nil
			}
		}

	case "s":
		if i := m.cursor - moduleRowBase; !m.saving && i >= 0 && i < m.moduleCount() {
			return m.startEdit(targetSummary, m.ed.Course().Modules[i].Summary), nil
		}

	case "t":
		if id := m.selectedModuleID(); !m.saving && id != "" {
			m.mode = editorModeTakeaways
			m.tkCursor = 0
		}

	case "a":
		if !m.saving {
			m.ed.AddModule()
			m.cursor = moduleRowBase + m.moduleCount() - 1
		}

	case "d":
		if id := m.selectedModuleID(); !m.saving && id != "" {
			m.mode = editorModeConfirmDelete
		}

	case "ctrl+s":
		if m.saving {
			return m, nil
		}
		m.saving = true
		ed := m.ed
		return m, func() tea.Msg {
			return editorSavedMsg{err: ed.Save(context.Background())}
		}

	case "ctrl+e":
		return m, m.exportJSON()

	case "ctrl+x":
		if m.ed.Dirty() {
			m.mode = editorModeConfirmExport
			return m, nil
		}
		return m, m.exportMarkdown()

	case "esc":
		if m.ed.Dirty() {
			m.mode = editorModeConfirmDiscard
			return m, nil
		}
		return m, func() tea.Msg { return showCoursesMsg{} }
	}
	return m, nil
}

func (m editorModel) startEdit(target editTarget, current string) editorModel {
	m.mode = editorModeField
	m.target = target
	m.input = current
	return m
}

func (m editorModel) updateField(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.commitField()
		m.mode = editorModeList
		m.input = ""
	case "esc":
		m.mode = editorModeList
		m.input = ""
	default:
		m.input = editRune(m.input, msg.String())
	}
	return m, nil
}

func (m *editorModel) commitField() {
	value := strings.TrimSpace(m.input)
	switch m.target {
	case targetTitle:
		m.ed.SetTitle(value)
	case targetDescription:
		m.ed.SetDescription(value)
	case targetHeading:
		m.ed.SetModuleHeading(m.selectedModuleID(), value)
	case targetSummary:
		m.ed.SetModuleSummary(m.selectedModuleID(), value)
	case targetTakeaway:
		m.ed.SetTakeaway(m.selectedModuleID(), m.tkCursor, value)
	}
}

func (m editorModel) selectedTakeaways() []string {
	i := m.cursor - moduleRowBase
	if i < 0 || i >= m.moduleCount() {
		return nil
	}
	return m.ed.Course().Modules[i].KeyTakeaways
}

func (m editorModel) updateTakeaways(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	tks := m.selectedTakeaways()
	switch msg.String() {
	case "j", "down":
		if m.tkCursor < len(tks)-1 {
			m.tkCursor++
		}
	case "k", "up":
		if m.tkCursor > 0 {
			m.tkCursor--
		}
	case "a":
		m.ed.AddTakeaway(m.selectedModuleID())
		m.tkCursor = len(tks)
		m.mode = editorModeField
		m.target = targetTakeaway
		m.input = ""
	case "enter":
		if m.tkCursor < len(tks) {
			m.mode = editorModeField
			m.target = targetTakeaway
			m.input = tks[m.tkCursor]
		}
	case "d":
		if m.tkCursor < len(tks) {
			m.ed.RemoveTakeaway(m.selectedModuleID(), m.tkCursor)
			if m.tkCursor > 0 {
				m.tkCursor--
			}
		}
	case "esc":
		m.mode = editorModeList
	}
	return m, nil
}

func (m editorModel) updateConfirmDelete(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.ed.RemoveModule(m.selectedModuleID())
		if m.cursor >= moduleRowBase+m.moduleCount() && m.cursor > rowTitle {
			m.cursor--
		}
		m.mode = editorModeList
	case "n", "N", "esc":
		m.mode = editorModeList
	}
	return m, nil
}

func (m editorModel) updateConfirmDiscard(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = editorModeList
		return m, func() tea.Msg { return showCoursesMsg{} }
	case "n", "N", "esc":
		m.mode = editorModeList
	}
	return m, nil
}

func (m editorModel) updateConfirmExport(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = editorModeList
		return m, m.exportMarkdown()
	case "n", "N", "esc":
		m.mode = editorModeList
	}
	return m, nil
}

// exportJSON snapshots the in-memory document, unsaved edits included, to
// the clipboard and a file in the working directory.
func (m editorModel) exportJSON() tea.Cmd {
	ed := m.ed
	return func() tea.Msg {
		data, err := ed.ExportJSON()
		if err != nil {
			return exportedMsg{what: "json", err: err}
		}
		path := editor.ExportFilename(ed.Course().Title, "json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportedMsg{what: "json", err: err}
		}
		clipboard.WriteAll(string(data)) //nolint:errcheck // headless terminals have no clipboard
		return exportedMsg{what: "json", path: path}
	}
}

// exportMarkdown writes the server-rendered markdown of the last-saved
// document. The caller has already confirmed when unsaved edits exist.
func (m editorModel) exportMarkdown() tea.Cmd {
	ed := m.ed
	return func() tea.Msg {
		text, err := ed.ExportMarkdown(context.Background())
		if err != nil {
			return exportedMsg{what: "markdown", err: err}
		}
		path := editor.ExportFilename(ed.Course().Title, "md")
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return exportedMsg{what: "markdown", err: err}
		}
		clipboard.WriteAll(text) //nolint:errcheck // headless terminals have no clipboard
		return exportedMsg{what: "markdown", path: path}
	}
}

func (m editorModel) View() string {
	if m.loading {
		return " " + dimStyle.Render("loading course...")
	}
	if m.ed == nil || m.ed.Course() == nil {
		if m.errMsg != "" {
			return " " + errStyle.Render(m.errMsg)
		}
		return " " + dimStyle.Render("no course open")
	}

	course := m.ed.Course()
	var b strings.Builder

	// Header: back hint + dirty marker
	header := " " + dimStyle.Render("<- courses (esc)")
	if m.ed.Dirty() {
		header += "  " + dirtyStyle.Render("● unsaved")
	}
	if m.saving {
		header += "  " + dimStyle.Render("saving...")
	}
	b.WriteString(header + "\n")

	// Title and description rows
	b.WriteString(m.renderFieldRow(rowTitle, "title", course.Title, targetTitle))
	b.WriteString(m.renderFieldRow(rowDescription, "about", course.Description, targetDescription))

	// Separator
	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	b.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	// Module list
	if len(course.Modules) == 0 {
		b.WriteString(" " + dimStyle.Render("no modules · press a to add one") + "\n")
	}
	for i, mod := range course.Modules {
		row := moduleRowBase + i
		selected := m.cursor == row

		cursor := "  "
		headingStyle := normalStyle
		if selected {
			cursor = accentStyle.Render("▸") + " "
			headingStyle = selectedStyle
		}

		num := metaStyle.Render(fmt.Sprintf("%2d.", i+1))
		heading := mod.Heading
		if selected && m.mode == editorModeField && m.target == targetHeading {
			heading = m.input + "█"
		}
		line := " " + cursor + num + " " + headingStyle.Render(truncStr(heading, m.width-12))
		if selected {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}

		if selected && m.mode == editorModeConfirmDelete {
			b.WriteString("      " + errStyle.Render("remove this module? ") +
				accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
		}

		// Expanded detail for the selected module
		if selected {
			summary := mod.Summary
			if m.mode == editorModeField && m.target == targetSummary {
				summary = m.input + "█"
			}
			if summary != "" {
				wrapped := lipgloss.NewStyle().Width(max(m.width-8, 20)).Render(summary)
				for _, l := range strings.Split(wrapped, "\n") {
					b.WriteString("      " + dimStyle.Render(l) + "\n")
				}
			}
			b.WriteString(m.renderTakeaways(mod.KeyTakeaways))
		}
	}

	if m.mode == editorModeConfirmDiscard {
		b.WriteString("\n " + warnStyle.Render("discard unsaved changes? ") +
			accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
	}
	if m.mode == editorModeConfirmExport {
		b.WriteString("\n " + warnStyle.Render("markdown reflects the last save; unsaved edits are not included. export anyway? ") +
			accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n " + errStyle.Render(m.errMsg) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString("\n " + statusStyle.Render(m.statusMsg) + "\n")
	}

	return truncateToHeight(b.String(), m.height)
}

func (m editorModel) renderFieldRow(row int, label, value string, target editTarget) string {
	selected := m.cursor == row
	cursor := "  "
	if selected {
		cursor = accentStyle.Render("▸") + " "
	}
	if selected && m.mode == editorModeField && m.target == target {
		value = m.input + "█"
	} else if value == "" {
		value = inputPlaceholderStyle.Render("(empty)")
	}
	style := normalStyle
	if selected {
		style = selectedStyle
	}
	return " " + cursor + metaStyle.Render(label+":") + " " + style.Render(truncStr(value, max(m.width-12, 20))) + "\n"
}

func (m editorModel) renderTakeaways(tks []string) string {
	var b strings.Builder
	inTk := m.mode == editorModeTakeaways ||
		(m.mode == editorModeField && m.target == targetTakeaway)

	if len(tks) == 0 && !inTk {
		return ""
	}
	label := "takeaways"
	if inTk {
		label += " · a add · d remove · esc done"
	}
	b.WriteString("      " + sectionHeaderStyle.Render(label) + "\n")
	for j, tk := range tks {
		marker := "- "
		style := dimStyle
		if inTk && j == m.tkCursor {
			marker = accentStyle.Render("▸ ")
			style = normalStyle
			if m.mode == editorModeField && m.target == targetTakeaway {
				tk = m.input + "█"
			}
		}
		b.WriteString("      " + marker + style.Render(truncStr(tk, max(m.width-10, 20))) + "\n")
	}
	return b.String()
}

func (m editorModel) helpKeys() string {
	switch m.mode {
	case editorModeField:
		return helpEntry("enter", "apply") + "  " + helpEntry("esc", "cancel")
	case editorModeTakeaways:
		return helpEntry("j/k", "nav") + "  " + helpEntry("a", "add") + "  " + helpEntry("enter", "edit") + "  " + helpEntry("d", "remove") + "  " + helpEntry("esc", "done")
	case editorModeConfirmDelete, editorModeConfirmDiscard, editorModeConfirmExport:
		return helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel")
	default:
		return helpEntry("j/k", "nav") + "  " + helpEntry("J/K", "move") + "  " + helpEntry("enter", "edit") + "  " + helpEntry("s", "summary") + "  " + helpEntry("t", "takeaways") + "  " + helpEntry("a", "add") + "  " + helpEntry("d", "remove") + "  " + helpEntry("ctrl+s", "save") + "  " + helpEntry("ctrl+e", "json") + "  " + helpEntry("ctrl+x", "markdown") + "  " + helpEntry("esc", "back")
	}
}
