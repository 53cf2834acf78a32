package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpProperties is the properties payload for an "http" node.
type httpProperties struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

// extractProperties is the properties payload for an "extract" node.
type extractProperties struct {
	Path string `json:"path"`
	Var  string `json:"var"`
}

// assertProperties is the properties payload for an "assert" node.
type assertProperties struct {
	Path   string          `json:"path"`
	Equals json.RawMessage `json:"equals"`
}

// executeNode runs a single node and returns its StepResult. client is
// injected so tests can point http nodes at an httptest.Server.
func executeNode(client *http.Client, node Node, ctx *ExecutionContext) StepResult {
	result := StepResult{ID: node.ID, StartTime: time.Now().UTC()}

	var err error
	switch node.Type {
	case "start":
		ctx.log("start: %s", node.ID)
	case "http":
		result.HTTPStatus, err = runHTTPNode(client, node, ctx)
	case "extract":
		err = runExtractNode(node, ctx)
	case "assert":
		err = runAssertNode(node, ctx)
	default:
		ctx.log("unknown node type %q for node %s, treating as no-op success", node.Type, node.ID)
	}

	result.EndTime = time.Now().UTC()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func runHTTPNode(client *http.Client, node Node, ctx *ExecutionContext) (int, error) {
	var props httpProperties
	if err := json.Unmarshal(node.Properties, &props); err != nil {
		return 0, fmt.Errorf("http node %s: invalid properties: %w", node.ID, err)
	}

	method := strings.ToUpper(props.Method)
	switch method {
	case "GET", "POST", "PUT", "DELETE":
	default:
		method = "GET"
	}

	url := applyVars(props.URL, ctx.Vars)

	var bodyReader io.Reader
	if len(props.Body) > 0 {
		var asString string
		if err := json.Unmarshal(props.Body, &asString); err == nil {
			bodyReader = strings.NewReader(applyVars(asString, ctx.Vars))
		} else {
			bodyReader = bytes.NewReader(props.Body)
		}
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("http node %s: build request: %w", node.ID, err)
	}
	for k, v := range props.Headers {
		req.Header.Set(k, applyVars(v, ctx.Vars))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http node %s: request failed: %w", node.ID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("http node %s: read response: %w", node.ID, err)
	}

	ctx.Vars[node.ID+"_status"] = fmt.Sprintf("%d", resp.StatusCode)
	ctx.Vars[node.ID+"_body"] = string(raw)
	ctx.LastResponse = decodeJSON(string(raw))

	return resp.StatusCode, nil
}

func runExtractNode(node Node, ctx *ExecutionContext) error {
	var props extractProperties
	if err := json.Unmarshal(node.Properties, &props); err != nil {
		return fmt.Errorf("extract node %s: invalid properties: %w", node.ID, err)
	}
	if ctx.LastResponse == nil {
		return fmt.Errorf("extract node %s: no prior response to extract from", node.ID)
	}

	value, ok := jsonPathString(ctx.LastResponse, props.Path)
	if !ok {
		return fmt.Errorf("extract node %s: path %q not found or not a scalar", node.ID, props.Path)
	}
	ctx.Vars[props.Var] = value
	return nil
}

func runAssertNode(node Node, ctx *ExecutionContext) error {
	var props assertProperties
	if err := json.Unmarshal(node.Properties, &props); err != nil {
		return fmt.Errorf("assert node %s: invalid properties: %w", node.ID, err)
	}

	actual, ok := jsonPathString(ctx.LastResponse, props.Path)
	if !ok {
		return fmt.Errorf("assert node %s: path %q not found or not a scalar", node.ID, props.Path)
	}

	var expected string
	var asString string
	if err := json.Unmarshal(props.Equals, &asString); err == nil {
		expected = applyVars(asString, ctx.Vars)
	} else {
		expected = string(props.Equals)
	}

	if actual != expected {
		return fmt.Errorf("assert node %s: expected %q, got %q", node.ID, expected, actual)
	}
	return nil
}
