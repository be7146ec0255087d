package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFixture(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	testContent := []byte("test fixture content")
	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(testFile, []byte(`{"id": 3, "name": "Inbox"}`), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var result struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	LoadFixtureJSON(t, testFile, &result)
	if result.ID != 3 || result.Name != "Inbox" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCompareWithGoldenCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "out.txt")

	CompareWithGolden(t, path, []byte("first"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("golden file not written: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected golden content %q, got %q", "first", data)
	}

	CompareWithGolden(t, path, []byte("first"))
}

func TestPaths(t *testing.T) {
	if got := FixturePath("tasks.json"); got != filepath.Join("testdata", "tasks.json") {
		t.Errorf("FixturePath() = %q", got)
	}
	if got := GoldenPath("view.txt"); got != filepath.Join("testdata", "golden", "view.txt") {
		t.Errorf("GoldenPath() = %q", got)
	}
}

func TestClocks(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	fixed := FixedClock(start)
	if !fixed().Equal(start) || !fixed().Equal(start) {
		t.Error("FixedClock should not move")
	}

	step := SteppingClock(start, time.Second)
	first, second := step(), step()
	if !first.Equal(start.Add(time.Second)) || !second.Equal(start.Add(2*time.Second)) {
		t.Errorf("unexpected stepping values: %v, %v", first, second)
	}
}
