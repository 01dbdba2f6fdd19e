package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/config"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

const (
	todoList  = "list-todo"
	doingList = "list-doing"
)

// scriptedPrompter answers prompts from fixed values.
type scriptedPrompter struct {
	confirm  bool
	setup    ui.Setup
	asked    []string
	setupErr error
}

func (p *scriptedPrompter) Confirm(title string) (bool, error) {
	p.asked = append(p.asked, title)
	return p.confirm, nil
}

func (p *scriptedPrompter) Setup(s *ui.Setup) error {
	p.asked = append(p.asked, "setup")
	if p.setupErr != nil {
		return p.setupErr
	}
	*s = p.setup
	return nil
}

// testEnv is an isolated config, data dir and fake board.
type testEnv struct {
	t           *testing.T
	dir         string
	configPath  string
	fake        *board.Fake
	prompter    *scriptedPrompter
	interactive bool
}

// isolate points the XDG directories at a temp dir and clears credential
// variables from the test environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	for _, k := range []string{"TRELLO_API_KEY", "TRELLO_API_TOKEN", "TASKLIST_TRELLO_API_KEY",
		"TASKLIST_TRELLO_TOKEN", "TASKLIST_TRELLO_BOARD_ID", "TASKLIST_TRELLO_LIST_ID"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

// newTestEnv writes a config file. When configured is false the Trello
// section is left empty.
func newTestEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()

	dir := isolate(t)
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Probe.Timeout = time.Second
	if configured {
		cfg.Trello = config.TrelloConfig{APIKey: "key", Token: "token", BoardID: "board-1", ListID: todoList}
	}
	path := filepath.Join(dir, "config.toml")
	if err := config.Write(path, cfg); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return &testEnv{
		t:          t,
		dir:        dir,
		configPath: path,
		fake: board.NewFake("board-1",
			&board.List{ID: todoList, Name: "To Do"},
			&board.List{ID: doingList, Name: "Doing"},
		),
		prompter: &scriptedPrompter{},
	}
}

// run executes the CLI and returns stdout, stderr and the exit code.
func (e *testEnv) run(argv ...string) (string, string, int) {
	e.t.Helper()

	var stdout, stderr bytes.Buffer
	deps := &Deps{
		NewBoard: func(*config.Config, *log.Logger) (board.Board, error) {
			return e.fake, nil
		},
		Prompter:    e.prompter,
		Interactive: func() bool { return e.interactive },
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		},
	}
	full := append([]string{"--config", e.configPath, "--no-color"}, argv...)
	code := Execute(full, &stdout, &stderr, deps)
	return stdout.String(), stderr.String(), code
}

// mustRun fails the test unless the command exits 0.
func (e *testEnv) mustRun(argv ...string) string {
	e.t.Helper()
	out, errOut, code := e.run(argv...)
	if code != ExitOK {
		e.t.Fatalf("%v exited %d\nstdout: %s\nstderr: %s", argv, code, out, errOut)
	}
	return out
}

// store opens the pending store the CLI writes to.
func (e *testEnv) store() *db.DB {
	e.t.Helper()
	database, err := db.Open(filepath.Join(e.dir, "data", config.DBFile))
	if err != nil {
		e.t.Fatalf("Failed to open store: %v", err)
	}
	if err := database.InitSchema(); err != nil {
		e.t.Fatalf("Failed to init store: %v", err)
	}
	e.t.Cleanup(func() { _ = database.Close() })
	return database
}

func (e *testEnv) pending() []*types.Task {
	e.t.Helper()
	tasks, err := e.store().ListTasks(db.ListTasksFilter{})
	if err != nil {
		e.t.Fatalf("ListTasks failed: %v", err)
	}
	return tasks
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("x: %w", types.ErrRemoteUnavailable), ExitOK},
		{fmt.Errorf("x: %w", types.ErrInvalidState), ExitOK},
		{fmt.Errorf("x: %w", types.ErrNotFound), ExitError},
		{fmt.Errorf("x: %w", types.ErrRemoteRejected), ExitError},
		{fmt.Errorf("x: %w", types.ErrStorage), ExitError},
		{fmt.Errorf("x: %w", types.ErrInvalidInput), ExitError},
		{fmt.Errorf("x: %w", types.ErrNotConfigured), ExitError},
		{&usageError{err: errors.New("bad flag")}, ExitUsage},
		{errors.New("unknown command"), ExitError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAdd_Online(t *testing.T) {
	env := newTestEnv(t, true)

	out := env.mustRun("add", "Buy", "milk", "--priority", "2", "--due", "2024-05-01")
	if !strings.Contains(out, "Added to board: Buy milk") {
		t.Errorf("Unexpected output: %s", out)
	}

	created := env.fake.Created()
	if len(created) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(created))
	}
	if created[0].ListID != todoList || created[0].Due.Format(types.DateLayout) != "2024-05-01" {
		t.Errorf("Unexpected card request: %+v", created[0])
	}
	if len(env.pending()) != 0 {
		t.Error("Expected nothing queued locally")
	}
}

func TestAdd_OfflineFallbackThenUpload(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.SetOffline(true)

	out, errOut, code := env.run("add", "Buy milk", "--priority", "2")
	if code != ExitOK {
		t.Fatalf("Expected exit 0 on fallback, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Queued locally as task 1") {
		t.Errorf("Unexpected output: %s", out)
	}

	tasks := env.pending()
	if len(tasks) != 1 || tasks[0].Description != "Buy milk" || tasks[0].Priority != 2 {
		t.Fatalf("Unexpected queue: %+v", tasks)
	}

	// Board still down: upload reports but does not fail the command.
	_, errOut, code = env.run("upload")
	if code != ExitOK {
		t.Errorf("Expected exit 0 for an unavailable board, got %d", code)
	}
	if !strings.Contains(errOut, "Warning:") {
		t.Errorf("Expected a warning, got: %s", errOut)
	}
	if tasks := env.pending(); len(tasks) != 1 || tasks[0].Status != types.StatusFailed {
		t.Fatalf("Expected task 1 failed and queued, got %+v", tasks)
	}

	env.fake.SetOffline(false)
	out = env.mustRun("upload")
	if !strings.Contains(out, "Uploaded task 1: Buy milk") {
		t.Errorf("Unexpected upload output: %s", out)
	}
	if len(env.pending()) != 0 {
		t.Error("Expected empty queue after upload")
	}

	out = env.mustRun("upload")
	if !strings.Contains(out, "Nothing to upload.") {
		t.Errorf("Expected idempotent second upload, got: %s", out)
	}
}

func TestAdd_ForcedOffline(t *testing.T) {
	env := newTestEnv(t, true)

	out := env.mustRun("--offline", "add", "Water plants", "--category", "Home")
	if !strings.Contains(out, "offline mode") {
		t.Errorf("Expected offline fallback reason, got: %s", out)
	}
	if calls := env.fake.Calls(); len(calls) != 0 {
		t.Errorf("Expected no board calls, got %v", calls)
	}
	if tasks := env.pending(); len(tasks) != 1 || tasks[0].Category != "Home" {
		t.Errorf("Unexpected queue: %+v", tasks)
	}
}

func TestAdd_NotConfiguredQueuesLocally(t *testing.T) {
	env := newTestEnv(t, false)

	env.mustRun("add", "Call mom")
	if tasks := env.pending(); len(tasks) != 1 {
		t.Fatalf("Expected 1 queued task, got %d", len(tasks))
	}
	if calls := env.fake.Calls(); len(calls) != 0 {
		t.Errorf("Expected no board calls, got %v", calls)
	}
}

func TestAdd_NaturalLanguageDue(t *testing.T) {
	env := newTestEnv(t, true)

	env.mustRun("--offline", "add", "Pay rent", "--due", "tomorrow")
	tasks := env.pending()
	if len(tasks) != 1 || tasks[0].DueString() != "2024-03-02" {
		t.Fatalf("Expected due 2024-03-02, got %+v", tasks)
	}
}

func TestAdd_Errors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no description", []string{"add"}, ExitUsage},
		{"blank description", []string{"add", "   "}, ExitError},
		{"bad priority", []string{"add", "x", "--priority", "9"}, ExitError},
		{"bad due", []string{"add", "x", "--due", "someday maybe"}, ExitError},
		{"unknown flag", []string{"add", "x", "--bogus"}, ExitUsage},
		{"unknown list", []string{"add", "x", "--list-name", "Nope"}, ExitError},
		{"bad output", []string{"--output", "xml", "list"}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := env.run(tt.args...)
			if code != tt.want {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, tt.want, errOut)
			}
			if !strings.Contains(errOut, "Error:") {
				t.Errorf("Expected error message, got: %q", errOut)
			}
		})
	}
	if len(env.fake.Created()) != 0 {
		t.Errorf("Expected no cards, got %v", env.fake.Created())
	}
}

func TestAdd_OffersUploadOnTerminal(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "First")

	env.interactive = true
	env.prompter.confirm = true
	env.mustRun("add", "Second")

	if len(env.prompter.asked) != 1 {
		t.Fatalf("Expected one prompt, got %v", env.prompter.asked)
	}
	created := env.fake.Created()
	if len(created) != 2 || created[0].Name != "First" || created[1].Name != "Second" {
		t.Fatalf("Expected First then Second on the board, got %+v", created)
	}
}

func TestListViewEditSub(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "Plan trip", "--priority", "3")
	env.mustRun("--offline", "add", "Buy milk")

	out := env.mustRun("sub", "add", "1", "Book", "hotel")
	if !strings.Contains(out, "Added sub-task 1 to task 1") {
		t.Errorf("Unexpected sub add output: %s", out)
	}

	out = env.mustRun("list")
	if !strings.Contains(out, "Plan trip [+]") || strings.Contains(out, "Buy milk [+]") {
		t.Errorf("Unexpected list output:\n%s", out)
	}

	out = env.mustRun("--output", "json", "list", "--sort", "priority")
	var items []struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		SubTasks    int    `json:"sub_tasks"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("Invalid json %q: %v", out, err)
	}
	if len(items) != 2 || items[0].ID != 2 || items[1].SubTasks != 1 {
		t.Errorf("Unexpected json list: %+v", items)
	}

	env.mustRun("edit", "2", "--description", "Buy oat milk", "--priority", "2")
	out = env.mustRun("view", "2")
	if !strings.Contains(out, "Buy oat milk") || !strings.Contains(out, "Medium") {
		t.Errorf("Edit not applied:\n%s", out)
	}

	out = env.mustRun("sub", "list", "1")
	if !strings.Contains(out, "Book hotel") {
		t.Errorf("Unexpected sub list output: %s", out)
	}

	out = env.mustRun("--output", "yaml", "view", "1")
	if !strings.Contains(out, "description: Plan trip") || !strings.Contains(out, "sub_tasks:") {
		t.Errorf("Unexpected yaml view:\n%s", out)
	}
}

func TestEdit_Errors(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "Task")

	if _, _, code := env.run("edit", "1"); code != ExitUsage {
		t.Errorf("edit without flags: exit %d, want %d", code, ExitUsage)
	}
	if _, _, code := env.run("edit", "99", "--description", "x"); code != ExitError {
		t.Errorf("edit missing task: exit %d, want %d", code, ExitError)
	}
	if _, _, code := env.run("view", "abc"); code != ExitError {
		t.Errorf("view bad id: exit %d, want %d", code, ExitError)
	}

	// A task caught mid-upload cannot be edited; this is reported, not fatal.
	if err := env.store().MarkStatus(1, types.StatusUploading); err != nil {
		t.Fatalf("MarkStatus failed: %v", err)
	}
	_, errOut, code := env.run("edit", "1", "--description", "x")
	if code != ExitOK || !strings.Contains(errOut, "Warning:") {
		t.Errorf("edit uploading task: exit %d, stderr %q", code, errOut)
	}
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "One")
	env.mustRun("--offline", "add", "Two")
	env.mustRun("sub", "add", "1", "child")

	if _, _, code := env.run("remove", "1"); code != ExitUsage {
		t.Errorf("remove without --yes off a terminal: exit %d, want %d", code, ExitUsage)
	}

	env.mustRun("remove", "--yes", "1")
	if tasks := env.pending(); len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("Unexpected queue after remove: %+v", tasks)
	}
	if counts, _ := env.store().SubTaskCounts(); len(counts) != 0 {
		t.Errorf("Expected sub-tasks removed, got %v", counts)
	}

	env.interactive = true
	env.prompter.confirm = false
	out := env.mustRun("remove", "2")
	if !strings.Contains(out, "Skipped task 2") || len(env.pending()) != 1 {
		t.Errorf("Expected declined removal, got %s", out)
	}

	if _, _, code := env.run("remove", "--yes", "42"); code != ExitError {
		t.Errorf("remove missing task: exit %d, want %d", code, ExitError)
	}
}

func TestUpload_RequiresBoard(t *testing.T) {
	env := newTestEnv(t, false)
	_, errOut, code := env.run("upload")
	if code != ExitError || !strings.Contains(errOut, "configure") {
		t.Errorf("upload unconfigured: exit %d, stderr %q", code, errOut)
	}

	env = newTestEnv(t, true)
	if _, _, code := env.run("--offline", "upload"); code != ExitUsage {
		t.Errorf("upload --offline: exit %d, want %d", code, ExitUsage)
	}
}

func TestUpload_JSON(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "First")
	env.mustRun("--offline", "add", "Second", "--list-name", "Missing")

	out := env.mustRun("--output", "json", "upload")
	var res struct {
		Succeeded []struct {
			TaskID int64 `json:"task_id"`
		} `json:"succeeded"`
		Rejected []struct {
			TaskID int64  `json:"task_id"`
			Error  string `json:"error"`
		} `json:"rejected"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Invalid json %q: %v", out, err)
	}
	if len(res.Succeeded) != 1 || res.Succeeded[0].TaskID != 1 {
		t.Errorf("Unexpected succeeded: %+v", res.Succeeded)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].TaskID != 2 {
		t.Errorf("Unexpected rejected: %+v", res.Rejected)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.AddCard(doingList, "Buy bread", "")
	env.mustRun("--offline", "add", "buy milk")

	out := env.mustRun("search", "BUY")
	local := strings.Index(out, "buy milk")
	remote := strings.Index(out, "Buy bread")
	if local < 0 || remote < 0 || local > remote {
		t.Errorf("Expected local match before remote:\n%s", out)
	}
	if !strings.Contains(out, "Doing #1") {
		t.Errorf("Expected list name and card number:\n%s", out)
	}

	out = env.mustRun("search", "buy", "--scope", "local")
	if strings.Contains(out, "Buy bread") {
		t.Errorf("Local scope returned a card:\n%s", out)
	}

	env.fake.SetOffline(true)
	out, errOut, code := env.run("search", "buy")
	if code != ExitOK || !strings.Contains(out, "buy milk") || !strings.Contains(errOut, "Warning:") {
		t.Errorf("Expected local results and a warning: exit %d\n%s\n%s", code, out, errOut)
	}

	if _, _, code := env.run("search", "buy", "--scope", "nowhere"); code != ExitError {
		t.Errorf("bad scope: exit %d, want %d", code, ExitError)
	}
}

func TestShowAndDone(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.AddCard(todoList, "First card", "")
	env.fake.AddCard(todoList, "Second card", "")
	env.fake.AddCard(doingList, "Working", "")

	out := env.mustRun("show")
	if !strings.Contains(out, "To Do (2)") || !strings.Contains(out, "2. Second card") {
		t.Errorf("Unexpected show output:\n%s", out)
	}

	out = env.mustRun("show", "--lists")
	if !strings.Contains(out, "1. To Do") || !strings.Contains(out, "2. Doing") {
		t.Errorf("Unexpected list names:\n%s", out)
	}

	out = env.mustRun("show", "--all")
	if !strings.Contains(out, "Doing (1)") || !strings.Contains(out, "1. Working") {
		t.Errorf("Unexpected --all output:\n%s", out)
	}

	out = env.mustRun("done", "1")
	if !strings.Contains(out, "Archived card 1: First card") {
		t.Errorf("Unexpected done output: %s", out)
	}
	if cards := env.fake.Cards(todoList); len(cards) != 1 || cards[0].Name != "Second card" {
		t.Errorf("Unexpected cards after done: %+v", cards)
	}

	env.mustRun("done", "1", "--list-name", "Doing")
	if cards := env.fake.Cards(doingList); len(cards) != 0 {
		t.Errorf("Expected Doing empty, got %+v", cards)
	}

	if _, _, code := env.run("done", "5"); code != ExitError {
		t.Errorf("done out of range: exit %d, want %d", code, ExitError)
	}
	if _, _, code := env.run("show", "--lists", "--all"); code != ExitUsage {
		t.Errorf("conflicting flags: exit %d, want %d", code, ExitUsage)
	}
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, true)
	env.fake.AddCard(todoList, "Write report", "")
	env.fake.AddCard(todoList, "Review report", "")

	out := env.mustRun("reports", "--report", "lists,keywords")
	if !strings.Contains(out, "Cards per List") || !strings.Contains(out, "Top Keywords") {
		t.Errorf("Unexpected reports output:\n%s", out)
	}
	if strings.Contains(out, "Weekly Sentiment") {
		t.Errorf("Unrequested report shown:\n%s", out)
	}

	if _, _, code := env.run("reports", "--report", "weather"); code != ExitUsage {
		t.Errorf("unknown report: exit %d, want %d", code, ExitUsage)
	}
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, true)
	path := filepath.Join(env.dir, "tasks.jsonl")
	content := `{"description": "Buy milk", "priority": 2}
{"description": "Fix bike", "due_date": "2024-04-01", "category": "Home"}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := env.mustRun("--offline", "import", path)
	if !strings.Contains(out, "2 queued locally") {
		t.Errorf("Unexpected import output:\n%s", out)
	}
	tasks := env.pending()
	if len(tasks) != 2 || tasks[1].Category != "Home" || tasks[1].DueString() != "2024-04-01" {
		t.Errorf("Unexpected queue: %+v", tasks)
	}

	if _, _, code := env.run("import", filepath.Join(env.dir, "missing.txt")); code != ExitError {
		t.Errorf("missing file: exit %d, want %d", code, ExitError)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustRun("--offline", "add", "Queued")

	out := env.mustRun("--output", "json", "status")
	var st statusOutput
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("Invalid json %q: %v", out, err)
	}
	if st.Pending != 1 || !st.Configured || !st.Online || st.Config != env.configPath {
		t.Errorf("Unexpected status: %+v", st)
	}

	env.fake.SetOffline(true)
	out = env.mustRun("status")
	if !strings.Contains(out, "unreachable") || !strings.Contains(out, "Pending:   1") {
		t.Errorf("Unexpected status output:\n%s", out)
	}
}

func TestConfigure(t *testing.T) {
	env := newTestEnv(t, false)

	if _, _, code := env.run("configure"); code != ExitUsage {
		t.Errorf("configure off a terminal without flags: exit %d, want %d", code, ExitUsage)
	}

	env.mustRun("configure", "--api-key", "k", "--token", "t", "--board-id", "b",
		"--list-id", "l", "--priority", "2", "--category", "Work")
	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := config.TrelloConfig{APIKey: "k", Token: "t", BoardID: "b", ListID: "l"}
	if cfg.Trello != want || cfg.Defaults.Priority != 2 || cfg.Defaults.Category != "Work" {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	env.interactive = true
	env.prompter.setup = ui.Setup{APIKey: "k2", Token: "t2", BoardID: "b2", ListID: "l2", Priority: "3", Category: "Home"}
	out := env.mustRun("configure")
	if !strings.Contains(out, "Board credentials verified") {
		t.Errorf("Expected verification message, got: %s", out)
	}
	if cfg, _ = config.Load(env.configPath); cfg.Trello.APIKey != "k2" || cfg.Defaults.Priority != 3 {
		t.Errorf("Prompted values not saved: %+v", cfg)
	}

	if _, _, code := env.run("configure", "--priority", "7"); code != ExitError {
		t.Errorf("bad priority: exit %d, want %d", code, ExitError)
	}
}

func TestErrorOutput_Structured(t *testing.T) {
	env := newTestEnv(t, true)

	out, errOut, code := env.run("--output", "json", "view", "42")
	if code != ExitError {
		t.Fatalf("view missing task: exit %d, want %d", code, ExitError)
	}
	if out != "" {
		t.Errorf("Expected empty stdout, got %q", out)
	}
	var res struct {
		Error     string `json:"error"`
		ErrorKind string `json:"error_kind"`
		Fatal     bool   `json:"fatal"`
		ExitCode  int    `json:"exit_code"`
	}
	if err := json.Unmarshal([]byte(errOut), &res); err != nil {
		t.Fatalf("Invalid json on stderr %q: %v", errOut, err)
	}
	if res.ErrorKind != "not_found" || !res.Fatal || res.ExitCode != ExitError || res.Error == "" {
		t.Errorf("Unexpected error output: %+v", res)
	}

	_, errOut, code = env.run("--output", "json", "edit", "1")
	if code != ExitUsage {
		t.Fatalf("edit without flags: exit %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(errOut, `"error_kind": "usage"`) {
		t.Errorf("Expected usage kind in %q", errOut)
	}

	_, errOut, _ = env.run("view", "42")
	if !strings.HasPrefix(errOut, "Error: ") {
		t.Errorf("Expected plain error line in text mode, got %q", errOut)
	}
}

func TestImport_StructuredFailures(t *testing.T) {
	env := newTestEnv(t, true)
	path := filepath.Join(env.dir, "tasks.jsonl")
	content := `{"description": "Buy milk"}
{"description": "Bad priority", "priority": 7}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out, errOut, code := env.run("--offline", "--output", "json", "import", path)
	if code != ExitError {
		t.Fatalf("import with a bad line: exit %d, want %d", code, ExitError)
	}
	var res struct {
		Local  int `json:"local"`
		Failed []struct {
			Line  int    `json:"line"`
			Error string `json:"error"`
		} `json:"failed"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Invalid json %q: %v", out, err)
	}
	if res.Local != 1 || len(res.Failed) != 1 || res.Failed[0].Line != 2 {
		t.Errorf("Unexpected import result: %+v", res)
	}
	if !strings.Contains(errOut, `"error_kind": "invalid_input"`) {
		t.Errorf("Expected invalid_input kind in %q", errOut)
	}
}
