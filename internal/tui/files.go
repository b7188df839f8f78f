package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/domain"
)

type filesState int

const (
	filesNormal   filesState = iota
	filesUpload              // typing an upload path
	filesDeleting            // delete confirmation
)

type filesLoadedMsg struct {
	files []domain.File
	err   error
}

type fileUploadedMsg struct {
	file *domain.File
	err  error
}

type fileDeletedMsg struct {
	id  string
	err error
}

type filesModel struct {
	client     *api.Client
	files      []domain.File
	cursor     int
	state      filesState
	uploadPath string
	uploading  bool
	loading    bool
	errMsg     string
	statusMsg  string
	width      int
	height     int
}

func newFilesModel(c *api.Client) filesModel {
	return filesModel{client: c, loading: true}
}

func (m filesModel) Init() tea.Cmd {
	return m.load()
}

func (m filesModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		files, err := c.MyFiles(context.Background())
		return filesLoadedMsg{files: files, err: err}
	}
}

func (m filesModel) isEditing() bool {
	return m.state != filesNormal
}

func (m filesModel) Update(msg tea.Msg) (filesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case filesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.files = msg.files
		m.errMsg = ""
		if m.cursor >= len(m.files) {
			m.cursor = 0
		}
		return m, nil

	case fileUploadedMsg:
		m.uploading = false
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.statusMsg = "uploaded " + msg.file.OriginalName
		return m, m.load()

	case fileDeletedMsg:
		if msg.err != nil {
			m.errMsg = api.UserMessage(msg.err)
			return m, authGuard(msg.err)
		}
		m.statusMsg = "file removed"
		return m, m.load()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		m.statusMsg = ""
		m.errMsg = ""
		switch m.state {
		case filesUpload:
			return m.updateUpload(msg)
		case filesDeleting:
			return m.updateDeleting(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m filesModel) updateNormal(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "u":
		if !m.uploading {
			m.state = filesUpload
			m.uploadPath = ""
		}
	case "d":
		if len(m.files) > 0 && m.cursor < len(m.files) {
			m.state = filesDeleting
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m filesModel) updateUpload(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.uploadPath)
		if path == "" {
			return m, nil
		}
		m.state = filesNormal
		m.uploading = true
		c := m.client
		return m, func() tea.Msg {
			f, err := os.Open(path)
			if err != nil {
				return fileUploadedMsg{err: fmt.Errorf("open %s: %w", path, err)}
			}
			defer f.Close()
			uploaded, err := c.UploadFile(context.Background(), filepath.Base(path), f)
			return fileUploadedMsg{file: uploaded, err: err}
		}
	case "esc":
		m.state = filesNormal
		m.uploadPath = ""
	default:
		m.uploadPath = editRune(m.uploadPath, msg.String())
	}
	return m, nil
}

func (m filesModel) updateDeleting(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.state = filesNormal
		if m.cursor < len(m.files) {
			id := m.files[m.cursor].ID
			c := m.client
			return m, func() tea.Msg {
				return fileDeletedMsg{id: id, err: c.DeleteFile(context.Background(), id)}
			}
		}
	case "n", "N", "esc":
		m.state = filesNormal
	}
	return m, nil
}

func (m filesModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render(fmt.Sprintf("── FILES %d ──", len(m.files))) + "\n")

	if m.state == filesUpload {
		b.WriteString(" " + inputPromptStyle.Render("upload:") + " " + m.uploadPath + accentStyle.Render("█") + "\n")
	}
	if m.uploading {
		b.WriteString(" " + dimStyle.Render("uploading...") + "\n")
	}

	if m.loading && len(m.files) == 0 {
		b.WriteString(" " + dimStyle.Render("loading files...") + "\n")
		return b.String()
	}
	if m.errMsg != "" {
		b.WriteString(" " + errStyle.Render(m.errMsg) + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(" " + statusStyle.Render(m.statusMsg) + "\n")
	}
	if len(m.files) == 0 && !m.loading {
		b.WriteString("\n " + dimStyle.Render("no files yet · press u to upload a document") + "\n")
		return b.String()
	}

	for i, f := range m.files {
		selected := i == m.cursor && m.state != filesUpload

		cursor := "  "
		nameStyle := normalStyle
		if selected {
			cursor = accentStyle.Render("▸") + " "
			nameStyle = selectedStyle
		}

		nameWidth := m.width - 32
		if nameWidth < 20 {
			nameWidth = 20
		}
		name := nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, truncStr(f.OriginalName, nameWidth)))
		size := metaStyle.Render(fmt.Sprintf("%10s", formatBytes(f.Size)))
		date := metaStyle.Render(formatTime(f.CreatedAt))

		line := " " + cursor + name + " " + size + "  " + date
		if selected {
			padded := line + strings.Repeat(" ", max(m.width-lipgloss.Width(line), 0))
			b.WriteString(selectedRowBg.Render(padded) + "\n")
		} else {
			b.WriteString(line + "\n")
		}

		if selected && m.state == filesDeleting {
			b.WriteString("     " + errStyle.Render("delete this file? ") +
				accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
		}
	}

	return truncateToHeight(b.String(), m.height)
}

func (m filesModel) helpKeys() string {
	switch m.state {
	case filesUpload:
		return helpEntry("enter", "upload") + "  " + helpEntry("esc", "cancel")
	case filesDeleting:
		return helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel")
	default:
		return helpEntry("j/k", "nav") + "  " + helpEntry("u", "upload") + "  " + helpEntry("d", "delete") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("h", "help") + "  " + helpEntry("q", "quit")
	}
}
