package support

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/shape-finder-mcp/cmd/shapefinder/cmd"
)

// Build is the version information reported by commands under test.
var Build = cmd.BuildInfo{Version: "0.0.0-test", BuildTime: "test", GitCommit: "test"}

// TestContext holds the state of one scenario. Commands run in-process
// inside TempDir.
type TestContext struct {
	LastCommand string
	LastOutput  string
	LastStderr  string
	LastError   error

	TempDir    string
	WorkingDir string

	savedEnv map[string]*string
}

// NewTestContext creates an idle scenario context. Start prepares the
// scenario directory.
func NewTestContext() *TestContext {
	return &TestContext{savedEnv: map[string]*string{}}
}

// Start creates a fresh temporary directory, makes it the working
// directory and clears any shapefinder configuration from the
// environment.
func (testCtx *TestContext) Start() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	tempDir, err := os.MkdirTemp("", "shapefinder-test-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	testCtx.WorkingDir = wd
	testCtx.TempDir = tempDir
	if err := os.Chdir(tempDir); err != nil {
		return fmt.Errorf("failed to enter temp directory: %w", err)
	}

	if err := testCtx.SetEnv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg")); err != nil {
		return err
	}
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "SHAPEFINDER_") {
			if err := testCtx.UnsetEnv(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetEnv sets an environment variable until Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) error {
	testCtx.remember(name)
	return os.Setenv(name, value)
}

// UnsetEnv removes an environment variable until Cleanup.
func (testCtx *TestContext) UnsetEnv(name string) error {
	testCtx.remember(name)
	return os.Unsetenv(name)
}

func (testCtx *TestContext) remember(name string) {
	if _, ok := testCtx.savedEnv[name]; ok {
		return
	}
	if old, ok := os.LookupEnv(name); ok {
		testCtx.savedEnv[name] = &old
	} else {
		testCtx.savedEnv[name] = nil
	}
}

// Path resolves name inside the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// Run executes command line in a new command tree. The first word must be
// "shapefinder".
func (testCtx *TestContext) Run(command, stdin string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "shapefinder" {
		return fmt.Errorf("unknown program %q", parts[0])
	}

	root := cmd.NewRootCommand(Build)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(parts[1:])

	testCtx.LastCommand = command
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

// Cleanup restores the environment and working directory and removes the
// scenario directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error
	for name, old := range testCtx.savedEnv {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}
	testCtx.savedEnv = map[string]*string{}
	if testCtx.WorkingDir != "" {
		if err := os.Chdir(testCtx.WorkingDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
		}
	}
	if testCtx.TempDir != "" {
		if err := os.RemoveAll(testCtx.TempDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
		}
	}
	return errors.Join(errs...)
}
