package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoCodeAlone/deskmate/board"
	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/task"
)

func newVault(t *testing.T) *Vault {
	t.Helper()
	dir := t.TempDir()
	return New(Paths{
		Tasks:    filepath.Join(dir, "Tasks"),
		Archive:  filepath.Join(dir, "Tasks", "Archive"),
		Projects: filepath.Join(dir, "Projects"),
		Board:    filepath.Join(dir, "Board.md"),
	}, nil)
}

func ptr[T any](v T) *T { return &v }

func loadBoard(t *testing.T, v *Vault) *board.Board {
	t.Helper()
	b, err := v.Board.Load()
	if err != nil {
		t.Fatalf("Load board: %v", err)
	}
	return b
}

func itemIn(t *testing.T, b *board.Board, column, title string) board.Item {
	t.Helper()
	col := b.Column(column)
	if col == nil {
		t.Fatalf("column %s missing", column)
	}
	for _, it := range col.Items {
		if it.Title == title {
			return it
		}
	}
	t.Fatalf("%s not in %s: %+v", title, column, col.Items)
	return board.Item{}
}

func TestVault_TaskLifecycle(t *testing.T) {
	v := newVault(t)

	created, err := v.CreateTask("Draft proposal", task.Fields{
		Status:   ptr(task.StatusNext),
		Priority: ptr(task.PriorityHigh),
		DueDate:  ptr("2026-02-20"),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.CompletedAt != nil {
		t.Errorf("CompletedAt set on create")
	}
	b := loadBoard(t, v)
	if it := itemIn(t, b, board.ColumnNext, "Draft proposal"); it.Date != "2026-02-20" || it.Completed {
		t.Errorf("Next item = %+v", it)
	}
	if n := len(b.Column(board.ColumnNext).Items); n != 1 {
		t.Errorf("Next holds %d items, want 1", n)
	}

	if _, err := v.UpdateTask("Draft proposal", task.Fields{Status: ptr(task.StatusWorking)}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	b = loadBoard(t, v)
	if cols := b.Locate("Draft proposal"); len(cols) != 1 || cols[0] != board.ColumnWorking {
		t.Fatalf("after update item in %v, want [Working]", cols)
	}
	if it := itemIn(t, b, board.ColumnWorking, "Draft proposal"); it.Date != "2026-02-20" {
		t.Errorf("Working item date = %q, want 2026-02-20", it.Date)
	}

	done, err := v.CompleteTask("draft proposal")
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("CompletedAt not set")
	}
	if it := itemIn(t, loadBoard(t, v), board.ColumnDone, "Draft proposal"); !it.Completed {
		t.Errorf("Done item not checked")
	}

	archived, err := v.ArchiveTask("Draft proposal")
	if err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}
	if archived.Status != task.StatusArchived {
		t.Errorf("Status = %q, want archived", archived.Status)
	}
	if _, _, ok := loadBoard(t, v).Find("Draft proposal"); ok {
		t.Error("archived task still on board")
	}
	if _, err := os.Stat(filepath.Join(v.Tasks.ArchiveDir(), "Draft proposal.md")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
	list, err := v.Tasks.Archived()
	if err != nil {
		t.Fatalf("Archived: %v", err)
	}
	if len(list) != 1 || list[0].Status != task.StatusArchived || list[0].CompletedAt == nil {
		t.Errorf("Archived = %+v", list)
	}
}

func TestVault_RejectsArchivedStatus(t *testing.T) {
	v := newVault(t)
	if _, err := v.CreateTask("Old", task.Fields{Status: ptr(task.StatusNext)}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := v.UpdateTask("Old", task.Fields{Status: ptr(task.StatusArchived)}); !errors.Is(err, task.ErrInvalidField) {
		t.Errorf("UpdateTask err = %v, want ErrInvalidField", err)
	}
	if _, err := v.CreateTask("Born archived", task.Fields{Status: ptr(task.StatusArchived)}); !errors.Is(err, task.ErrInvalidField) {
		t.Errorf("CreateTask err = %v, want ErrInvalidField", err)
	}

	b := loadBoard(t, v)
	if cols := b.Locate("Old"); len(cols) != 1 || cols[0] != board.ColumnNext {
		t.Errorf("Old in %v, want [Next]", cols)
	}
	if _, _, ok := b.Find("Born archived"); ok {
		t.Error("rejected task added to board")
	}
	if _, err := os.Stat(filepath.Join(v.Tasks.Dir(), "Born archived.md")); !os.IsNotExist(err) {
		t.Errorf("rejected task file written: %v", err)
	}
	got, err := v.Tasks.Get("Old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != task.StatusNext {
		t.Errorf("Status = %q, want next", got.Status)
	}

	res, err := v.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Changed() {
		t.Errorf("Sync = %+v, want no changes", res)
	}
}

func TestVault_RenamePreservesPosition(t *testing.T) {
	v := newVault(t)
	for _, title := range []string{"First", "Second", "Third"} {
		if _, err := v.CreateTask(title, task.Fields{}); err != nil {
			t.Fatalf("CreateTask %s: %v", title, err)
		}
	}
	if _, err := v.UpdateTask("Second", task.Fields{Title: ptr("Second, renamed")}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	items := loadBoard(t, v).Column(board.ColumnBacklog).Items
	var got []string
	for _, it := range items {
		got = append(got, it.Title)
	}
	want := []string{"First", "Second, renamed", "Third"}
	if len(got) != len(want) {
		t.Fatalf("Backlog = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Backlog[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := v.GetTask("Second"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("old title err = %v, want ErrNotFound", err)
	}
}

func TestVault_DueDateRetagsInPlace(t *testing.T) {
	v := newVault(t)
	for _, title := range []string{"A", "B"} {
		if _, err := v.CreateTask(title, task.Fields{Status: ptr(task.StatusNext)}); err != nil {
			t.Fatalf("CreateTask %s: %v", title, err)
		}
	}
	if _, err := v.UpdateTask("A", task.Fields{DueDate: ptr("2026-03-01")}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	items := loadBoard(t, v).Column(board.ColumnNext).Items
	if len(items) != 2 || items[0].Title != "A" || items[0].Date != "2026-03-01" {
		t.Errorf("Next = %+v, want A first with new date", items)
	}
}

func TestVault_DeleteTask(t *testing.T) {
	v := newVault(t)
	if _, err := v.CreateTask("Throwaway", task.Fields{}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	title, err := v.DeleteTask("throwaway")
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if title != "Throwaway" {
		t.Errorf("title = %q, want Throwaway", title)
	}
	if _, _, ok := loadBoard(t, v).Find("Throwaway"); ok {
		t.Error("deleted task still on board")
	}
	if _, err := v.DeleteTask("Throwaway"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestVault_SyncPrunesGhost(t *testing.T) {
	v := newVault(t)
	if _, err := v.CreateTask("Real", task.Fields{}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := v.Board.AddItem("Ghost Task", task.StatusBacklog, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	res, err := v.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Removed < 1 {
		t.Errorf("Removed = %d, want >= 1", res.Removed)
	}
	if _, _, ok := loadBoard(t, v).Find("Ghost Task"); ok {
		t.Error("Ghost Task still on board")
	}
}

func TestVault_ListProjectsCountsOpenTasks(t *testing.T) {
	v := newVault(t)
	if _, err := v.CreateProject("Website", ""); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	for title, status := range map[string]task.Status{
		"Copy":   task.StatusNext,
		"Design": task.StatusWorking,
		"Launch": task.StatusDone,
	} {
		if _, err := v.CreateTask(title, task.Fields{Status: ptr(status), Project: ptr("Website")}); err != nil {
			t.Fatalf("CreateTask %s: %v", title, err)
		}
	}
	list, err := v.ListProjects("")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 1 || list[0].OpenTasks != 2 {
		t.Errorf("ListProjects = %+v, want Website with 2 open tasks", list)
	}
}

func TestOpen_RequiresVault(t *testing.T) {
	if _, err := Open(config.DefaultConfig(), nil); !errors.Is(err, config.ErrMissing) {
		t.Errorf("Open err = %v, want config.ErrMissing", err)
	}
}

func TestVault_BoardTextBootstraps(t *testing.T) {
	v := newVault(t)
	text, err := v.BoardText()
	if err != nil {
		t.Fatalf("BoardText: %v", err)
	}
	if got := board.Parse(text); len(got.Columns) != len(board.DefaultColumns) {
		t.Errorf("columns = %d, want %d", len(got.Columns), len(board.DefaultColumns))
	}
}
