package confedit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/piforge/piforge/internal/adapters/filesystem"
	"github.com/piforge/piforge/internal/adapters/logging"
	"github.com/piforge/piforge/internal/domain/provision"
)

type fakeArchiver struct {
	snapshots map[string][][]byte
	fail      bool
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{snapshots: make(map[string][][]byte)}
}

func (a *fakeArchiver) Archive(_ context.Context, path string, content []byte) error {
	if a.fail {
		return errors.New("archive failed")
	}
	a.snapshots[path] = append(a.snapshots[path], append([]byte(nil), content...))
	return nil
}

func newTestMutator(fs *filesystem.FakeFileSystem, archiver *fakeArchiver) *Mutator {
	return NewMutator(fs, archiver, logging.NewNopLogger())
}

const (
	begin = "# BEGIN TEST"
	end   = "# END TEST"
)

func block(path, content string) Block {
	return Block{Path: path, BeginMarker: begin, EndMarker: end, Content: content, Owner: "test"}
}

func TestUpsertBlockCreatesMissingFile(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	m := newTestMutator(fs, newFakeArchiver())

	if err := m.UpsertBlock(context.Background(), block("/etc/app.conf", "key=1\n")); err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}

	got, err := fs.ReadFile("/etc/app.conf")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := begin + "\nkey=1\n" + end + "\n"
	if string(got) != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestUpsertBlockIsIdempotent(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte("existing=true\n"))
	m := newTestMutator(fs, newFakeArchiver())
	b := block("/etc/app.conf", "key=1\n")

	if err := m.UpsertBlock(context.Background(), b); err != nil {
		t.Fatalf("first UpsertBlock: %v", err)
	}
	first, _ := fs.ReadFile("/etc/app.conf")

	if err := m.UpsertBlock(context.Background(), b); err != nil {
		t.Fatalf("second UpsertBlock: %v", err)
	}
	second, _ := fs.ReadFile("/etc/app.conf")

	if string(first) != string(second) {
		t.Errorf("second upsert changed the file:\nfirst:  %q\nsecond: %q", first, second)
	}
	if count := strings.Count(string(second), begin); count != 1 {
		t.Errorf("begin marker appears %d times, want 1", count)
	}
}

func TestUpsertBlockReplacesExistingRegion(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/boot/config.txt", []byte("hdmi=1\n"+begin+"\ngpu_mem=128\n"+end+"\ntail=keep\n"))
	m := newTestMutator(fs, newFakeArchiver())

	if err := m.UpsertBlock(context.Background(), block("/boot/config.txt", "gpu_mem=256\n")); err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}

	got, _ := fs.ReadFile("/boot/config.txt")
	content := string(got)
	if strings.Contains(content, "gpu_mem=128") {
		t.Errorf("old value survived: %q", content)
	}
	if !strings.Contains(content, "gpu_mem=256") {
		t.Errorf("new value missing: %q", content)
	}
	if !strings.Contains(content, "hdmi=1") || !strings.Contains(content, "tail=keep") {
		t.Errorf("text outside the region was touched: %q", content)
	}
	if count := strings.Count(content, begin); count != 1 {
		t.Errorf("begin marker appears %d times, want 1", count)
	}
}

func TestEveryMutationTakesABackup(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte("original\n"))
	archiver := newFakeArchiver()
	m := newTestMutator(fs, archiver)

	// Each upsert must snapshot the state it is about to overwrite.
	var preStates []string
	for i := 0; i < 3; i++ {
		current, _ := fs.ReadFile("/etc/app.conf")
		preStates = append(preStates, string(current))

		content := "key=" + strings.Repeat("x", i+1) + "\n"
		if err := m.UpsertBlock(context.Background(), block("/etc/app.conf", content)); err != nil {
			t.Fatalf("UpsertBlock %d: %v", i, err)
		}
	}

	snaps := archiver.snapshots["/etc/app.conf"]
	if len(snaps) != 3 {
		t.Fatalf("got %d backups after 3 mutations, want 3", len(snaps))
	}
	for i, snap := range snaps {
		if string(snap) != preStates[i] {
			t.Errorf("backup %d = %q, want pre-mutation state %q", i, snap, preStates[i])
		}
	}
}

func TestRemoveBlockBacksUpBeforeExcising(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	seeded := "head\n" + begin + "\nkey=1\n" + end + "\n"
	fs.Seed("/etc/app.conf", []byte(seeded))
	archiver := newFakeArchiver()
	m := newTestMutator(fs, archiver)

	if err := m.RemoveBlock(context.Background(), block("/etc/app.conf", "")); err != nil {
		t.Fatalf("RemoveBlock: %v", err)
	}

	snaps := archiver.snapshots["/etc/app.conf"]
	if len(snaps) != 1 || string(snaps[0]) != seeded {
		t.Errorf("snapshots = %q, want one backup of the pre-removal file", snaps)
	}
}

func TestUpsertBlockDanglingBeginMarkerIsAnError(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte(begin+"\nkey=1\n"))
	m := newTestMutator(fs, newFakeArchiver())

	err := m.UpsertBlock(context.Background(), block("/etc/app.conf", "key=2\n"))
	if err == nil {
		t.Fatal("expected error for begin marker without end marker")
	}
	var perr *provision.Error
	if !errors.As(err, &perr) || perr.Code != provision.ErrCodeConfigMutation {
		t.Errorf("error = %v, want ConfigMutation classification", err)
	}

	// The corrupt file must be left untouched.
	got, _ := fs.ReadFile("/etc/app.conf")
	if string(got) != begin+"\nkey=1\n" {
		t.Errorf("corrupt file was modified: %q", got)
	}
}

func TestUpsertBlockEmptyMarkerRejected(t *testing.T) {
	m := newTestMutator(filesystem.NewFakeFileSystem(), newFakeArchiver())
	err := m.UpsertBlock(context.Background(), Block{Path: "/etc/app.conf", Content: "x\n"})
	if err == nil {
		t.Fatal("expected error for empty markers")
	}
}

func TestUpsertBlockBackupFailureAbortsMutation(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte("original\n"))
	archiver := newFakeArchiver()
	archiver.fail = true
	m := newTestMutator(fs, archiver)

	if err := m.UpsertBlock(context.Background(), block("/etc/app.conf", "key=1\n")); err == nil {
		t.Fatal("expected error when backup fails")
	}
	got, _ := fs.ReadFile("/etc/app.conf")
	if string(got) != "original\n" {
		t.Errorf("file mutated despite failed backup: %q", got)
	}
}

func TestRemoveBlock(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte("head\n"+begin+"\nkey=1\n"+end+"\ntail\n"))
	m := newTestMutator(fs, newFakeArchiver())
	b := block("/etc/app.conf", "")

	if err := m.RemoveBlock(context.Background(), b); err != nil {
		t.Fatalf("RemoveBlock: %v", err)
	}
	got, _ := fs.ReadFile("/etc/app.conf")
	if strings.Contains(string(got), begin) {
		t.Errorf("region still present: %q", got)
	}
	if !strings.Contains(string(got), "head") || !strings.Contains(string(got), "tail") {
		t.Errorf("surrounding text lost: %q", got)
	}

	// Removing again is a no-op, not an error.
	before, _ := fs.ReadFile("/etc/app.conf")
	if err := m.RemoveBlock(context.Background(), b); err != nil {
		t.Fatalf("second RemoveBlock: %v", err)
	}
	after, _ := fs.ReadFile("/etc/app.conf")
	if string(before) != string(after) {
		t.Error("idempotent removal changed the file")
	}
}

func TestRemoveBlockMissingFileIsNoop(t *testing.T) {
	m := newTestMutator(filesystem.NewFakeFileSystem(), newFakeArchiver())
	if err := m.RemoveBlock(context.Background(), block("/no/such/file", "")); err != nil {
		t.Fatalf("RemoveBlock on missing file: %v", err)
	}
}

func TestUpsertRepeatedlyDoesNotAccumulateBlankLines(t *testing.T) {
	fs := filesystem.NewFakeFileSystem()
	fs.Seed("/etc/app.conf", []byte("head\n\n"+begin+"\nkey=1\n"+end+"\n"))
	m := newTestMutator(fs, newFakeArchiver())

	for i := 0; i < 5; i++ {
		if err := m.UpsertBlock(context.Background(), block("/etc/app.conf", "key=1\n")); err != nil {
			t.Fatalf("UpsertBlock %d: %v", i, err)
		}
	}
	got, _ := fs.ReadFile("/etc/app.conf")
	if strings.Contains(string(got), "\n\n\n") {
		t.Errorf("blank lines accumulated: %q", got)
	}
}
