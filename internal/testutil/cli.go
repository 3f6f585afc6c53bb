// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskdesk/cmd/taskdesk/cmd"
	"taskdesk/internal/session"
)

// sqliteTestConfig uses a local database with two assignable users.
const sqliteTestConfig = `# test config
backend: sqlite
backends:
  sqlite:
    users:
      - id: "1"
        name: Admin
      - id: "2"
        name: Jane Doe
session:
  store: file
ui:
  page_size: 5
`

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
}

// NewCLITest creates a CLI test helper backed by a fresh SQLite database.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()
	return newCLITest(t, sqliteTestConfig)
}

// NewCLITestWithAPI creates a CLI test helper that talks to a mock REST API.
func NewCLITestWithAPI(t *testing.T, api *MockAPI) *CLITest {
	t.Helper()
	conf := "# test config\nbackend: rest\napi:\n  base_url: " + api.URL() + "\n  timeout: 5s\nsession:\n  store: file\nui:\n  page_size: 5\n"
	return newCLITest(t, conf)
}

func newCLITest(t *testing.T, configYAML string) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	viewsDir := filepath.Join(tmpDir, "views")

	// Write a minimal default config to ensure isolation
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	cfg := &cmd.Config{
		NoPrompt:    true,
		ConfigPath:  configPath,
		DBPath:      filepath.Join(tmpDir, "test.db"),
		ViewsPath:   viewsDir,
		SessionPath: filepath.Join(tmpDir, "session.yaml"),
		Stdin:       strings.NewReader(""),
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
	}
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// ViewsDir returns the directory saved views are written to.
func (c *CLITest) ViewsDir() string {
	return c.cfg.ViewsPath
}

// SetFullConfig replaces the entire config file with the given YAML content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// SetStdin feeds input to interactive prompts and turns prompting on.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
	c.cfg.NoPrompt = false
}

// Login logs in with the accepted credentials.
func (c *CLITest) Login() {
	c.t.Helper()
	c.MustExecute("login", "-u", session.ValidUsername, "-p", session.ValidPassword)
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// MustExecuteJSON runs a command with --json and decodes stdout into out.
func (c *CLITest) MustExecuteJSON(out any, args ...string) {
	c.t.Helper()

	stdout := c.MustExecute(append(args, "--json")...)
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), out); err != nil {
		c.t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
}

// AddTask creates a task with every required field and returns its id.
func (c *CLITest) AddTask(title, due, user string, extra ...string) string {
	c.t.Helper()

	args := append([]string{"tasks", "add", title, "-d", "About " + title, "--due", due, "-u", user}, extra...)
	var resp struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	c.MustExecuteJSON(&resp, args...)
	if resp.Task.ID == "" {
		c.t.Fatalf("created task %q has no id", title)
	}
	return resp.Task.ID
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %q but output is empty", expectedCode)
		return
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != expectedCode {
		t.Errorf("expected result code %q, got %q\nfull output:\n%s", expectedCode, last, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
