package editor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetide/coursetide/pkg/domain"
)

// fakeCourseAPI is a CourseAPI double that records the last PUT payload and
// simulates the server assigning identities on save.
type fakeCourseAPI struct {
	stored    *domain.Course
	lastPut   *domain.Course
	loadErr   error
	saveErr   error
	nextSrvID int
	markdown  string
}

func (f *fakeCourseAPI) Course(context.Context, string) (*domain.Course, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.stored.Clone(), nil
}

func (f *fakeCourseAPI) UpdateCourse(_ context.Context, _ string, course *domain.Course) (*domain.Course, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.lastPut = course.Clone()
	// Replace any identity the server has never seen, like the backend
	// does for locally-created modules.
	accepted := course.Clone()
	for i := range accepted.Modules {
		if !f.knownID(accepted.Modules[i].ID) {
			f.nextSrvID++
			accepted.Modules[i].ID = srvID(f.nextSrvID)
		}
	}
	f.stored = accepted
	return accepted.Clone(), nil
}

func (f *fakeCourseAPI) ExportMarkdown(context.Context, string) (string, error) {
	if f.markdown == "" {
		return "", errors.New("no markdown configured")
	}
	return f.markdown, nil
}

func (f *fakeCourseAPI) knownID(id string) bool {
	for _, m := range f.stored.Modules {
		if m.ID == id {
			return true
		}
	}
	return false
}

func srvID(n int) string {
	return "srv-" + string(rune('0'+n))
}

func twoModuleCourse() *domain.Course {
	return &domain.Course{
		ID:    "c1",
		Title: "T",
		Modules: []domain.Module{
			{ID: "m1", Heading: "one", KeyTakeaways: []string{"k1"}, OrderIndex: 0},
			{ID: "m2", Heading: "two", KeyTakeaways: []string{}, OrderIndex: 1},
		},
	}
}

func loadedEditor(t *testing.T, api *fakeCourseAPI) *Editor {
	t.Helper()
	e := New(api, "c1")
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestLoadReplacesUnsavedEdits(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.SetTitle("edited away")
	require.True(t, e.Dirty())

	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, "T", e.Course().Title, "loading always wins over unsaved edits")
	assert.False(t, e.Dirty())
}

func TestMutateFieldTouchesOnlyAddressedModule(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.SetModuleHeading("m2", "renamed")
	e.SetModuleSummary("m2", "sum")

	assert.Equal(t, "one", e.Course().Modules[0].Heading)
	assert.Equal(t, "", e.Course().Modules[0].Summary)
	assert.Equal(t, "renamed", e.Course().Modules[1].Heading)
	assert.Equal(t, "sum", e.Course().Modules[1].Summary)
}

// Scenario: reorder m1 past m2, then save. The transmitted ranks must equal
// the 0-based in-memory positions at the moment of save.
func TestReorderThenSaveRanks(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.MoveModule("m1", "m2")
	require.Equal(t, "m2", e.Course().Modules[0].ID)
	require.Equal(t, "m1", e.Course().Modules[1].ID)

	require.NoError(t, e.Save(context.Background()))
	require.NotNil(t, api.lastPut)
	assert.Equal(t, "m2", api.lastPut.Modules[0].ID)
	assert.Equal(t, 0, api.lastPut.Modules[0].OrderIndex)
	assert.Equal(t, "m1", api.lastPut.Modules[1].ID)
	assert.Equal(t, 1, api.lastPut.Modules[1].OrderIndex)
}

// Ranks transmitted equal positions regardless of how many reorders and
// removals preceded the save, with no gaps.
func TestSaveRanksContiguousAfterChurn(t *testing.T) {
	stored := twoModuleCourse()
	stored.Modules = append(stored.Modules, domain.Module{ID: "m3", Heading: "three", OrderIndex: 2})
	api := &fakeCourseAPI{stored: stored}
	e := loadedEditor(t, api)

	e.MoveModule("m3", "m1")
	e.RemoveModule("m2")
	e.MoveModule("m1", "m3")

	var wantIDs []string
	for _, m := range e.Course().Modules {
		wantIDs = append(wantIDs, m.ID)
	}

	require.NoError(t, e.Save(context.Background()))
	require.Len(t, api.lastPut.Modules, len(wantIDs))
	for i, m := range api.lastPut.Modules {
		assert.Equal(t, wantIDs[i], m.ID)
		assert.Equal(t, i, m.OrderIndex, "ranks are 0-based and contiguous")
	}
}

// Scenario: AddModule on an empty course yields one module with a
// locally-assigned identity and rank 0 after save-time recomputation.
func TestAddModuleOnEmptyCourse(t *testing.T) {
	api := &fakeCourseAPI{stored: &domain.Course{ID: "c1", Title: "T", Modules: []domain.Module{}}}
	e := loadedEditor(t, api)

	localID := e.AddModule()
	require.NotEmpty(t, localID)
	require.Len(t, e.Course().Modules, 1)

	require.NoError(t, e.Save(context.Background()))
	require.Len(t, api.lastPut.Modules, 1)
	assert.Equal(t, localID, api.lastPut.Modules[0].ID, "local identity is transmitted as-is")
	assert.Equal(t, 0, api.lastPut.Modules[0].OrderIndex)
}

// After a successful save the editor holds the server's copy, with
// locally-assigned identities replaced by server-assigned ones.
func TestSaveReconcilesLocalIdentities(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	localID := e.AddModule()
	require.NoError(t, e.Save(context.Background()))

	ids := make(map[string]bool)
	for _, m := range e.Course().Modules {
		ids[m.ID] = true
	}
	assert.False(t, ids[localID], "locally-assigned identity must not survive reconciliation")
	assert.Len(t, e.Course().Modules, 3)
	assert.False(t, e.Dirty())
}

// Scenario: a failing save leaves the in-memory document, including
// reorders and edits since the last load, unchanged.
func TestSaveFailurePreservesEdits(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.SetTitle("edited")
	e.MoveModule("m1", "m2")
	before, err := e.ExportJSON()
	require.NoError(t, err)

	api.saveErr = errors.New("HTTP 500")
	require.Error(t, e.Save(context.Background()))

	after, err := e.ExportJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after), "failed save must not touch in-memory state")
	assert.True(t, e.Dirty())
	assert.Equal(t, "m2", e.Course().Modules[0].ID)
	assert.Equal(t, 1, e.Course().Modules[0].OrderIndex, "no premature rank renumbering")
}

func TestRemoveModuleKeepsRanksUntilSave(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.RemoveModule("m1")
	require.Len(t, e.Course().Modules, 1)
	assert.Equal(t, 1, e.Course().Modules[0].OrderIndex, "rank untouched until save")
}

func TestMoveModuleStaleIdentityIgnored(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	before := e.Course().Clone()
	e.MoveModule("m1", "gone")
	e.MoveModule("gone", "m2")
	assert.Equal(t, before, e.Course())
	assert.False(t, e.Dirty())
}

func TestTakeawayMutations(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.AddTakeaway("m1")
	e.SetTakeaway("m1", 1, "new fact")
	e.RemoveTakeaway("m1", 0)
	assert.Equal(t, []string{"new fact"}, e.Course().Modules[0].KeyTakeaways)

	// Out-of-range positions are ignored.
	e.SetTakeaway("m1", 5, "x")
	e.RemoveTakeaway("m1", -1)
	assert.Equal(t, []string{"new fact"}, e.Course().Modules[0].KeyTakeaways)
}

// Round-trip: exporting a freshly loaded, unmutated document reproduces the
// loaded value.
func TestExportJSONRoundTrip(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	data, err := e.ExportJSON()
	require.NoError(t, err)

	var got domain.Course
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *e.Course(), got)
}

func TestExportJSONIncludesUnsavedEdits(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse()}
	e := loadedEditor(t, api)

	e.SetTitle("unsaved title")
	data, err := e.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "unsaved title")
}

func TestExportMarkdownIsLastSaved(t *testing.T) {
	api := &fakeCourseAPI{stored: twoModuleCourse(), markdown: "# T\n"}
	e := loadedEditor(t, api)

	e.SetTitle("unsaved")
	md, err := e.ExportMarkdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# T\n", md, "markdown reflects the last-saved document only")
	assert.True(t, e.Dirty(), "callers use Dirty to surface the asymmetry")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "intro-to-go.md", ExportFilename("Intro to Go", "md"))
	assert.Equal(t, "a-b.json", ExportFilename("  A?&B ", "json"))
	assert.Equal(t, "course.md", ExportFilename("", "md"))
}
