package support

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data"`
	} `json:"error"`
}

// responses decodes the JSON-RPC lines written by "shapefinder serve".
func (testCtx *TestContext) responses() (map[int]rpcResponse, error) {
	out := map[int]rpcResponse{}
	for _, line := range strings.Split(strings.TrimSpace(testCtx.LastOutput), "\n") {
		if line == "" {
			continue
		}
		var r rpcResponse
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("invalid response line %q: %w", line, err)
		}
		out[r.ID] = r
	}
	return out, nil
}

func (testCtx *TestContext) response(id int) (rpcResponse, error) {
	resps, err := testCtx.responses()
	if err != nil {
		return rpcResponse{}, err
	}
	r, ok := resps[id]
	if !ok {
		return rpcResponse{}, fmt.Errorf("no response to request %d\nOutput: %s", id, testCtx.LastOutput)
	}
	return r, nil
}

func (testCtx *TestContext) thereShouldBeResponses(n int) error {
	resps, err := testCtx.responses()
	if err != nil {
		return err
	}
	if len(resps) != n {
		return fmt.Errorf("got %d responses, want %d\nOutput: %s", len(resps), n, testCtx.LastOutput)
	}
	return nil
}

// theResponseShouldContain checks the result of a request. Tool results
// are unwrapped to the text they carry.
func (testCtx *TestContext) theResponseShouldContain(id int, expected string) error {
	r, err := testCtx.response(id)
	if err != nil {
		return err
	}
	if r.Error != nil {
		return fmt.Errorf("request %d failed: %s", id, r.Error.Message)
	}

	text := string(r.Result)
	var content struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if json.Unmarshal(r.Result, &content) == nil && len(content.Content) > 0 {
		text = content.Content[0].Text
	}
	if !strings.Contains(text, expected) {
		return fmt.Errorf("response %d does not contain '%s'\nResult: %s", id, expected, text)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeAnError(id int, expected string) error {
	r, err := testCtx.response(id)
	if err != nil {
		return err
	}
	if r.Error == nil {
		return fmt.Errorf("request %d did not fail: %s", id, r.Result)
	}
	msg := r.Error.Message
	if r.Error.Data != "" {
		msg += ": " + r.Error.Data
	}
	if !strings.Contains(strings.ToLower(msg), strings.ToLower(expected)) {
		return fmt.Errorf("error for request %d does not mention '%s': %s", id, expected, msg)
	}
	return nil
}

// RegisterServerSteps registers steps for MCP sessions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^there should be (\d+) responses?$`, testCtx.thereShouldBeResponses)
	sc.Step(`^the response to request (\d+) should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response to request (\d+) should be an error mentioning "([^"]*)"$`, testCtx.theResponseShouldBeAnError)
}
