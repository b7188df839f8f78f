package editor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coursetide/coursetide/pkg/domain"
)

// CourseAPI is the slice of the request gateway the editor needs; satisfied
// by api.Client.
type CourseAPI interface {
	Course(ctx context.Context, id string) (*domain.Course, error)
	UpdateCourse(ctx context.Context, id string, course *domain.Course) (*domain.Course, error)
	ExportMarkdown(ctx context.Context, id string) (string, error)
}

// ValidationError reports locally-detected malformed input. It blocks an
// action before any network call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Editor holds an in-memory, freely mutable copy of one course, independent
// of the last-saved copy, until an explicit Save. Local mutations are
// synchronous and never touch the network; only Load, Save, and
// ExportMarkdown do.
//
// Concurrent Save calls are unsupported: whichever response is processed
// last overwrites in-memory state. Callers serialize saves (the TUI disables
// the save key while one is outstanding).
type Editor struct {
	api    CourseAPI
	id     string
	course *domain.Course
	dirty  bool
}

// New returns an editor for the course with the given identity. Nothing is
// loaded until Load is called.
func New(api CourseAPI, id string) *Editor {
	return &Editor{api: api, id: id}
}

// Course returns the in-memory document, or nil before the first Load.
func (e *Editor) Course() *domain.Course {
	return e.course
}

// Dirty reports whether local mutations exist that no save has transmitted.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Load fetches the document and replaces any in-memory state
// unconditionally; unsaved edits are discarded, never merged.
func (e *Editor) Load(ctx context.Context) error {
	course, err := e.api.Course(ctx, e.id)
	if err != nil {
		return fmt.Errorf("editor.Load: %w", err)
	}
	e.course = course
	e.dirty = false
	return nil
}

// SetTitle replaces the course title.
func (e *Editor) SetTitle(title string) {
	if e.course == nil {
		return
	}
	e.course.Title = title
	e.dirty = true
}

// SetDescription replaces the course description.
func (e *Editor) SetDescription(desc string) {
	if e.course == nil {
		return
	}
	e.course.Description = desc
	e.dirty = true
}

// moduleIndex returns the position of the module with the given identity,
// or -1. Server-assigned and locally-assigned identities are
// interchangeable here.
func (e *Editor) moduleIndex(id string) int {
	if e.course == nil {
		return -1
	}
	for i := range e.course.Modules {
		if e.course.Modules[i].ID == id {
			return i
		}
	}
	return -1
}

// SetModuleHeading replaces one module's heading; other modules untouched.
func (e *Editor) SetModuleHeading(id, heading string) {
	if i := e.moduleIndex(id); i >= 0 {
		e.course.Modules[i].Heading = heading
		e.dirty = true
	}
}

// SetModuleSummary replaces one module's summary.
func (e *Editor) SetModuleSummary(id, summary string) {
	if i := e.moduleIndex(id); i >= 0 {
		e.course.Modules[i].Summary = summary
		e.dirty = true
	}
}

// AddModule appends a module with a locally-assigned identity and rank equal
// to the current length, and returns that identity. The identity is valid
// only until the next successful save round-trips a server one.
func (e *Editor) AddModule() string {
	if e.course == nil {
		return ""
	}
	m := domain.Module{
		ID:           uuid.NewString(),
		Heading:      "New Module",
		KeyTakeaways: []string{},
		OrderIndex:   len(e.course.Modules),
	}
	e.course.Modules = append(e.course.Modules, m)
	e.dirty = true
	return m.ID
}

// RemoveModule deletes the addressed module. Remaining ranks are not
// renumbered here; rank is derived from position at save time only.
func (e *Editor) RemoveModule(id string) {
	if i := e.moduleIndex(id); i >= 0 {
		e.course.Modules = append(e.course.Modules[:i], e.course.Modules[i+1:]...)
		e.dirty = true
	}
}

// AddTakeaway appends an empty takeaway to the addressed module.
func (e *Editor) AddTakeaway(moduleID string) {
	if i := e.moduleIndex(moduleID); i >= 0 {
		e.course.Modules[i].KeyTakeaways = append(e.course.Modules[i].KeyTakeaways, "")
		e.dirty = true
	}
}

// SetTakeaway replaces one takeaway by position.
func (e *Editor) SetTakeaway(moduleID string, idx int, text string) {
	i := e.moduleIndex(moduleID)
	if i < 0 || idx < 0 || idx >= len(e.course.Modules[i].KeyTakeaways) {
		return
	}
	e.course.Modules[i].KeyTakeaways[idx] = text
	e.dirty = true
}

// RemoveTakeaway deletes one takeaway by position.
func (e *Editor) RemoveTakeaway(moduleID string, idx int) {
	i := e.moduleIndex(moduleID)
	if i < 0 || idx < 0 || idx >= len(e.course.Modules[i].KeyTakeaways) {
		return
	}
	t := e.course.Modules[i].KeyTakeaways
	e.course.Modules[i].KeyTakeaways = append(t[:idx], t[idx+1:]...)
	e.dirty = true
}

// MoveModule splices the module with identity fromID to the position of the
// module with identity toID. Identities that no longer resolve (concurrent
// delete between gesture start and end) are ignored.
func (e *Editor) MoveModule(fromID, toID string) {
	from := e.moduleIndex(fromID)
	to := e.moduleIndex(toID)
	if from < 0 || to < 0 || from == to {
		return
	}
	e.course.Modules = Move(e.course.Modules, from, to)
	e.dirty = true
}

// Save transmits the full document as a single replace operation. Every
// module's rank is recomputed from its current position first — on a copy,
// so a failed save leaves in-memory state byte-for-byte unchanged and the
// user may retry. On success the document is reloaded from the server
// rather than trusted locally, because the server may have assigned new
// identities to locally-created modules; that reload is the sole
// reconciliation mechanism.
func (e *Editor) Save(ctx context.Context) error {
	if e.course == nil {
		return &ValidationError{Field: "course", Reason: "nothing loaded"}
	}

	payload := e.course.Clone()
	for i := range payload.Modules {
		payload.Modules[i].OrderIndex = i
	}

	if _, err := e.api.UpdateCourse(ctx, e.id, payload); err != nil {
		return fmt.Errorf("editor.Save: %w", err)
	}
	if err := e.Load(ctx); err != nil {
		return fmt.Errorf("editor.Save: reload after save: %w", err)
	}
	return nil
}

// ExportJSON serializes the current in-memory document verbatim, unsaved
// edits included.
func (e *Editor) ExportJSON() ([]byte, error) {
	if e.course == nil {
		return nil, &ValidationError{Field: "course", Reason: "nothing loaded"}
	}
	return marshalCourse(e.course)
}

// ExportMarkdown fetches the server-rendered markdown for the last-saved
// document. Unsaved edits are never included; callers must surface that
// asymmetry (warn, or force a save first) when Dirty reports true.
func (e *Editor) ExportMarkdown(ctx context.Context) (string, error) {
	if e.course == nil {
		return "", &ValidationError{Field: "course", Reason: "nothing loaded"}
	}
	text, err := e.api.ExportMarkdown(ctx, e.id)
	if err != nil {
		return "", fmt.Errorf("editor.ExportMarkdown: %w", err)
	}
	return text, nil
}
