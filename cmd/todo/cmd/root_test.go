package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-todo-cache/pkg/testsupport"
)

type cli struct {
	t      *testing.T
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
database:
  path: %s
state:
  dir: %s
log:
  level: error
  file: ""
`, filepath.Join(dir, "todo.db"), filepath.Join(dir, "state"))
	if err := os.WriteFile(config, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cli{t: t, config: config}
}

// run executes args and returns stdout, stderr and the exit code.
func (c *cli) run(args ...string) (string, string, int) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(append([]string{"--config", c.config}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// ok executes args, fails the test on a non-zero exit and returns stdout.
func (c *cli) ok(args ...string) string {
	c.t.Helper()
	stdout, stderr, code := c.run(args...)
	if code != 0 {
		c.t.Fatalf("todo %s exited %d: %s", strings.Join(args, " "), code, stderr)
	}
	return stdout
}

func TestListsCommands(t *testing.T) {
	c := newCLI(t)

	if got := c.ok("lists", "add"); got != "created list 1 \"New List 1\"\n" {
		t.Errorf("unexpected add output: %q", got)
	}
	c.ok("lists", "add", "Groceries")
	if got := c.ok("lists", "add"); got != "created list 3 \"New List 2\"\n" {
		t.Errorf("the counter should continue from the persisted value, got %q", got)
	}

	testsupport.CompareWithGolden(t, testsupport.GoldenPath("lists_ls.txt"), []byte(c.ok("lists", "ls")))

	if got := c.ok("lists", "ls", "--search", "groc"); got != "   2  Groceries\n" {
		t.Errorf("unexpected search output: %q", got)
	}
	if got := c.ok("lists", "recent", "--limit", "1"); got != "   3  New List 2\n" {
		t.Errorf("unexpected recent output: %q", got)
	}

	c.ok("lists", "rename", "2", "Weekly", "shop")
	c.ok("lists", "rm", "1")
	if got := c.ok("lists", "ls", "--search", "e"); got != "   2  Weekly shop\n   3  New List 2\n" {
		t.Errorf("unexpected lists after rename and delete: %q", got)
	}
}

func TestTasksCommands(t *testing.T) {
	c := newCLI(t)
	c.ok("lists", "add", "Inbox")

	if got := c.ok("tasks", "add", "1", "Buy", "milk", "--priority", "high", "--due", "2999-01-01"); got != "created task 1 \"Buy milk\"\n" {
		t.Errorf("unexpected add output: %q", got)
	}
	c.ok("tasks", "add", "1", "Call mom")
	if got := c.ok("tasks", "toggle", "1", "2"); got != "task 2 completed\n" {
		t.Errorf("unexpected toggle output: %q", got)
	}

	testsupport.CompareWithGolden(t, testsupport.GoldenPath("tasks_ls.txt"), []byte(c.ok("tasks", "ls", "1")))

	upcoming := c.ok("tasks", "ls", "1", "--tab", "upcoming")
	if !strings.HasPrefix(upcoming, "upcoming: 1 shown, 0 completed\n") || !strings.Contains(upcoming, "Buy milk") {
		t.Errorf("unexpected upcoming view: %q", upcoming)
	}
	completed := c.ok("tasks", "ls", "1", "--tab", "completed")
	if !strings.HasPrefix(completed, "completed: 1 shown, 1 completed\n") || !strings.Contains(completed, "Call mom") {
		t.Errorf("unexpected completed view: %q", completed)
	}
	if got := c.ok("tasks", "ls", "1", "--priority", "high", "--search", "CALL"); got != "all: 0 shown, 0 completed\n" {
		t.Errorf("unexpected filtered view: %q", got)
	}

	stdout, stderr, code := c.run("tasks", "toggle", "1", "2")
	if code != 0 || stdout != "task 2 is not completed\n" || !strings.Contains(stderr, "marked as not completed") {
		t.Errorf("un-completing should warn: code %d, stdout %q, stderr %q", code, stdout, stderr)
	}

	if got := c.ok("tasks", "status", "1", "1", "in_progress"); got != "task 1 is in_progress\n" {
		t.Errorf("unexpected status output: %q", got)
	}
	c.ok("tasks", "edit", "1", "1", "--name", "Buy oat milk", "--priority", "")
	c.ok("tasks", "rm", "1", "2")

	want := "all: 1 shown, 0 completed\n[ ]    1  in_progress  -       Buy oat milk  (due 2999-01-01)\n"
	if got := c.ok("tasks", "ls", "1"); got != want {
		t.Errorf("unexpected final view:\n got %q\nwant %q", got, want)
	}
}

func TestCommandErrors(t *testing.T) {
	c := newCLI(t)
	c.ok("lists", "add", "Inbox")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad list id", args: []string{"tasks", "ls", "abc"}, want: `invalid list id "abc"`},
		{name: "unknown tab", args: []string{"tasks", "ls", "1", "--tab", "later"}, want: "unknown tab"},
		{name: "unknown status", args: []string{"tasks", "status", "1", "1", "done"}, want: "unknown status"},
		{name: "blank task name", args: []string{"tasks", "add", "1", " "}, want: "name is required"},
		{name: "missing task", args: []string{"tasks", "toggle", "1", "9"}, want: "task 9 not found in list 1"},
		{name: "missing list", args: []string{"lists", "rm", "99"}, want: "list 99 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := c.run(tt.args...)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("expected stderr to contain %q, got %q", tt.want, stderr)
			}
		})
	}
}
