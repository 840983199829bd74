package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmd_NoCommandsIsError(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error when no commands are given")
	}
	if !strings.Contains(err.Error(), "no commands") {
		t.Errorf("error = %q, want it to mention 'no commands'", err.Error())
	}
}

func TestRootCmd_VersionFlagSkipsExecution(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("--version returned error: %v", err)
	}
	if !strings.Contains(out.String(), ".") {
		t.Errorf("--version output = %q, want a version string", out.String())
	}
}

func TestRootCmd_EmptyCommandIsRejectedByConfig(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"-n", "a", "  "})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for a blank command")
	}
}
