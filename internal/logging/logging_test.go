package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestVerboseGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Debugf("hidden %d", 1)
	Infof("also hidden")
	Warnf("always shown")
	Errorf("always shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info leaked without verbose:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] always shown") || !strings.Contains(out, "[ERROR] always shown too") {
		t.Errorf("warn/error missing:\n%s", out)
	}

	buf.Reset()
	SetVerbose(true)
	defer SetVerbose(false)
	Debugf("now visible")
	Infof("info visible")

	out = buf.String()
	if !strings.Contains(out, "[DEBUG] now visible") || !strings.Contains(out, "[INFO] info visible") {
		t.Errorf("verbose output missing:\n%s", out)
	}
}
