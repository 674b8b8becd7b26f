package system

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type pathRunner struct {
	available map[string]bool
}

func (p *pathRunner) Run(name string, args ...string) error            { return nil }
func (p *pathRunner) RunInteractive(name string, args ...string) error { return nil }
func (p *pathRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, nil
}
func (p *pathRunner) LookPath(name string) (string, error) {
	if p.available[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func TestMissingTools(t *testing.T) {
	r := &pathRunner{available: map[string]bool{
		"cryptsetup": true,
		"blkid":      true,
	}}

	missing := MissingTools(r, []string{"systemd-cryptenroll", "cryptsetup", "blkid", "dracut"})
	want := []string{"systemd-cryptenroll", "dracut"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("MissingTools = %v, want %v", missing, want)
	}

	if missing := MissingTools(r, []string{"cryptsetup"}); missing != nil {
		t.Errorf("MissingTools = %v, want nil", missing)
	}
}

func TestExecRunnerMissingCommand(t *testing.T) {
	r := &ExecRunner{}
	err := r.Run("rampart-no-such-tool-xyzzy")
	if err == nil {
		t.Fatal("expected error for missing command")
	}
	if !strings.Contains(err.Error(), "rampart-no-such-tool-xyzzy failed") {
		t.Errorf("error %q does not name the tool", err)
	}
}

func TestExecRunnerCapturesOutputInError(t *testing.T) {
	r := &ExecRunner{}
	err := r.Run("sh", "-c", "echo broken pipe stage >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken pipe stage") {
		t.Errorf("error %q does not carry the captured output", err)
	}
}

func TestExecRunnerOutput(t *testing.T) {
	r := &ExecRunner{}
	out, err := r.Output("sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("Output = %q, want hello", out)
	}
}
