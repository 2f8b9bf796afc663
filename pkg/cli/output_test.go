package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	in := map[string]any{"name": "demo", "count": 3}
	if err := Output(in, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if got["name"] != "demo" {
		t.Errorf("name = %v; want demo", got["name"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output is not indented")
	}
}

func TestOutputYAMLDefault(t *testing.T) {
	var buf bytes.Buffer
	in := struct {
		Name  string `yaml:"name"`
		Count int    `yaml:"count"`
	}{Name: "demo", Count: 3}

	// An empty format falls back to YAML.
	if err := Output(in, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: demo") {
		t.Errorf("YAML output missing field:\n%s", buf.String())
	}
}

func TestOutputUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Output("x", OutputOptions{Format: "xml", Writer: &buf})
	if err == nil {
		t.Fatal("unsupported format did not error")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("error %q does not name the format", err)
	}
}
