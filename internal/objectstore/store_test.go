package objectstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestSaveFileSetRoundTrip(t *testing.T) {
	store := testStore(t)

	result, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	})
	if err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}
	if result.FilesSaved != 1 || result.TotalBytes != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.StoragePath != "repositories/art1" {
		t.Errorf("StoragePath = %q", result.StoragePath)
	}

	got, err := store.ReadFile("art1", "a.py")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got.Content != "x" || got.Size != 1 {
		t.Errorf("ReadFile = %+v", got)
	}

	files, total, err := store.ListFiles("art1", 10, 0)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if total != 1 || len(files) != 1 {
		t.Fatalf("ListFiles total=%d len=%d", total, len(files))
	}
	if files[0].Path != "a.py" || files[0].Size != 1 {
		t.Errorf("files[0] = %+v", files[0])
	}
}

func TestSaveFileSetNestedPaths(t *testing.T) {
	store := testStore(t)

	_, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "src/pkg/util.go", Content: "package pkg", Size: 11},
		{Path: "docs/readme.md", Content: "# docs", Size: 6},
	})
	if err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	got, err := store.ReadFile("art1", "src/pkg/util.go")
	if err != nil {
		t.Fatalf("ReadFile nested failed: %v", err)
	}
	if got.Content != "package pkg" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestSidecarExcludesContent(t *testing.T) {
	store := testStore(t)

	_, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "secret-content", Size: 14},
	})
	if err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.Base(), "repositories", "art1", "metadata.json"))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty sidecar")
	}
	if strings.Contains(string(data), "secret-content") {
		t.Error("sidecar must not duplicate file content")
	}
	if !strings.Contains(string(data), `"a.py"`) {
		t.Error("sidecar should index file paths")
	}
}

func TestListFilesPaginationBoundary(t *testing.T) {
	store := testStore(t)

	files := make([]artifact.FileEntry, 5)
	for i := range files {
		files[i] = artifact.FileEntry{Path: string(rune('a'+i)) + ".go", Content: "x", Size: 1}
	}
	if _, err := store.SaveFileSet("art1", files); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	// Out-of-range offset yields an empty page, not an error
	page, total, err := store.ListFiles("art1", 10, 1000)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 0 {
		t.Errorf("page len = %d, want 0", len(page))
	}

	// Partial page at the tail
	page, total, err = store.ListFiles("art1", 3, 3)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Errorf("total=%d len=%d, want 5 and 2", total, len(page))
	}
}

func TestListFilesInsertionOrder(t *testing.T) {
	store := testStore(t)

	_, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "zebra.go", Content: "z", Size: 1},
		{Path: "alpha.go", Content: "a", Size: 1},
	})
	if err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	page, _, err := store.ListFiles("art1", 10, 0)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if page[0].Path != "zebra.go" || page[1].Path != "alpha.go" {
		t.Errorf("order = [%s %s], want insertion order", page[0].Path, page[1].Path)
	}
}

func TestListFilesMissingSidecar(t *testing.T) {
	store := testStore(t)

	_, _, err := store.ListFiles("absent", 10, 0)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want not-found, got: %v", err)
	}
}

func TestReadFilePathTraversal(t *testing.T) {
	store := testStore(t)

	// Put a real file outside the artifact directory to prove the guard
	// is not just a missing-file 404.
	outside := filepath.Join(store.Base(), "secret.txt")
	if err := os.WriteFile(outside, []byte("top secret"), 0600); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	for _, path := range []string{
		"../../secret.txt",
		"../../etc/passwd",
		"/etc/passwd",
		"a/../../../secret.txt",
	} {
		_, err := store.ReadFile("art1", path)
		if err == nil {
			t.Errorf("ReadFile(%q) should fail", path)
			continue
		}
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ReadFile(%q) should be a validation error, got: %v", path, err)
		}
	}
}

func TestReadFileSymlinkEscape(t *testing.T) {
	store := testStore(t)

	outside := filepath.Join(store.Base(), "secret.txt")
	if err := os.WriteFile(outside, []byte("top secret"), 0600); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	link := filepath.Join(store.Base(), "repositories", "art1", "link.txt")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if _, err := store.ReadFile("art1", "link.txt"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("symlink escape should be a validation error, got: %v", err)
	}
}

func TestReadFileNotFound(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	if _, err := store.ReadFile("art1", "missing.py"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want not-found, got: %v", err)
	}
}

func TestReadFileHidesSidecar(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	// The index file exists on disk but is not artifact content.
	for _, path := range []string{"metadata.json", "./metadata.json"} {
		if _, err := store.ReadFile("art1", path); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("ReadFile(%q) should be not-found, got: %v", path, err)
		}
	}
}

func TestSaveFileSetRejectsTraversalEntry(t *testing.T) {
	store := testStore(t)

	_, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "../evil.py", Content: "x", Size: 1},
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("traversal entry should be rejected, got: %v", err)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	store := testStore(t)

	data := []byte{0x25, 0x50, 0x44, 0x46} // %PDF
	result, err := store.SaveUpload("art1", "report.pdf", data)
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}
	if result.StoragePath != "uploads/art1/report.pdf" {
		t.Errorf("StoragePath = %q", result.StoragePath)
	}

	got, err := store.ReadUpload("art1")
	if err != nil {
		t.Fatalf("ReadUpload failed: %v", err)
	}
	if got.Filename != "report.pdf" || got.Size != 4 {
		t.Errorf("ReadUpload = %+v", got)
	}
	if string(got.Data) != string(data) {
		t.Error("upload bytes mismatch")
	}
}

func TestReadUploadMissing(t *testing.T) {
	store := testStore(t)

	if _, err := store.ReadUpload("absent"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want not-found, got: %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "x", Size: 1},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}

	deleted, err := store.Delete("art1")
	if err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if !deleted {
		t.Error("first Delete = false, want true")
	}

	deleted, err = store.Delete("art1")
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if deleted {
		t.Error("second Delete = true, want false")
	}
}

func TestDeleteUploadNamespace(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveUpload("art1", "doc.pdf", []byte("pdf")); err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	deleted, err := store.Delete("art1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Error("Delete = false, want true")
	}
	if _, err := store.ReadUpload("art1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("upload should be gone, got: %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveFileSet("art1", []artifact.FileEntry{
		{Path: "a.py", Content: "hello", Size: 5},
	}); err != nil {
		t.Fatalf("SaveFileSet failed: %v", err)
	}
	if _, err := store.SaveUpload("art2", "doc.pdf", []byte("pdf-bytes")); err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}

	stats, err := store.ComputeStats()
	if err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}
	if stats.Repositories != 1 || stats.Uploads != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalBytes == 0 {
		t.Error("TotalBytes = 0, want > 0")
	}
}

func TestIDs(t *testing.T) {
	store := testStore(t)

	if _, err := store.SaveFileSet("r1", []artifact.FileEntry{{Path: "a", Content: "x", Size: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveUpload("u1", "f.pdf", []byte("x")); err != nil {
		t.Fatal(err)
	}

	ids, err := store.IDs()
	if err != nil {
		t.Fatalf("IDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("IDs = %v, want 2 entries", ids)
	}
}
