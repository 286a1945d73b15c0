package support

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// iRunCommand executes a command with empty standard input.
func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.Run(command, "")
}

// iRunCommandWithInput executes a command with doc as standard input.
func (testCtx *TestContext) iRunCommandWithInput(command string, doc *godog.DocString) error {
	return testCtx.Run(command, doc.Content+"\n")
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nStderr: %s", testCtx.LastCommand, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded when it should have failed\nOutput: %s", testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(testCtx.LastOutput, unexpected) {
		return fmt.Errorf("output contains '%s'\nActual output: %s", unexpected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theLogShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastStderr, expected) {
		return fmt.Errorf("log does not contain '%s'\nActual log: %s", expected, testCtx.LastStderr)
	}
	return nil
}

// theErrorShouldMention matches case-insensitively against the returned
// error and standard error.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", text)
	}
	full := testCtx.LastError.Error() + " " + testCtx.LastStderr
	if !strings.Contains(strings.ToLower(full), strings.ToLower(text)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", text, full)
	}
	return nil
}

func (testCtx *TestContext) outputJSON() (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return data, nil
}

// lookupJSON follows a dotted path such as "detections.0.label".
func lookupJSON(data interface{}, path string) (interface{}, error) {
	current := data
	parts := strings.Split(path, ".")
	for i, part := range parts {
		switch v := current.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in JSON", strings.Join(parts[:i+1], "."))
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("no element '%s' in array of %d", strings.Join(parts[:i+1], "."), len(v))
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot navigate into non-container field '%s'", strings.Join(parts[:i], "."))
		}
	}
	return current, nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.outputJSON()
	return err
}

func (testCtx *TestContext) theJSONShouldContain(path string) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	_, err = lookupJSON(data, path)
	return err
}

func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	v, err := lookupJSON(data, path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("field '%s' is %s, want %s", path, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theJSONArrayShouldHaveElements(path string, n int) error {
	data, err := testCtx.outputJSON()
	if err != nil {
		return err
	}
	v, err := lookupJSON(data, path)
	if err != nil {
		return err
	}
	arr, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("field '%s' is not an array", path)
	}
	if len(arr) != n {
		return fmt.Errorf("field '%s' has %d elements, want %d", path, len(arr), n)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", name, expected, data)
	}
	return nil
}

func (testCtx *TestContext) aFileWith(name string, doc *godog.DocString) error {
	return os.WriteFile(testCtx.Path(name), []byte(doc.Content+"\n"), 0o644)
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.SetEnv(name, value)
}

// RegisterCommonSteps registers command, output and file steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the log should contain "([^"]*)"$`, testCtx.theLogShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON array "([^"]*)" should have (\d+) elements?$`, testCtx.theJSONArrayShouldHaveElements)

	sc.Step(`^a file "([^"]*)" with:$`, testCtx.aFileWith)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
