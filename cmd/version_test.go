package cmd

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func TestNewVersionCmd(t *testing.T) {
	versionCmd := newVersionCmd()

	if versionCmd.Use != "version" {
		t.Errorf("Expected Use to be 'version', got %s", versionCmd.Use)
	}
	if versionCmd.Short == "" || versionCmd.Long == "" {
		t.Error("Expected descriptions to be set")
	}
	if versionCmd.Flags().Lookup("short") == nil {
		t.Error("Expected --short flag")
	}
}

func TestPrintVersion_BuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.25.6",
		Main:      debug.Module{Path: "xplorer"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	var buf bytes.Buffer
	printVersion(&buf, "1.2.3-test", false)

	want := "xplorer version 1.2.3-test\n" +
		"  go:       go1.25.6\n" +
		"  module:   xplorer\n" +
		"  revision: 0123456789ab (modified)\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrintVersion_Short(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{GoVersion: "go1.25.6"})

	var buf bytes.Buffer
	printVersion(&buf, "1.2.3", true)
	if buf.String() != "xplorer version 1.2.3\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintVersion_NoBuildInfo(t *testing.T) {
	withBuildInfo(t, nil)

	var buf bytes.Buffer
	printVersion(&buf, "", false)
	if buf.String() != "xplorer version \n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestVersionCommandExecution(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{GoVersion: "go1.25.6", Main: debug.Module{Path: "xplorer"}})
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()
	rootCmd.Version = "1.2.3-test"

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	resetFlags()
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "xplorer version 1.2.3-test\n") {
		t.Errorf("unexpected output %q", output)
	}
	if !strings.Contains(output, "go1.25.6") {
		t.Errorf("expected Go version in %q", output)
	}
}
