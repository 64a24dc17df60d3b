package cmd

import (
	"os"
	"strings"
	"testing"
)

func TestExecute_UnknownCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"kbsearch", "bogus"}
	err := Execute()
	if err == nil {
		t.Fatal("Execute() succeeded for unknown command")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Execute() error = %v, want the unknown command named", err)
	}
}

func TestExecute_VersionAndHelpSucceed(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	for _, arg := range []string{"version", "--version", "-v", "help", "--help", "-h"} {
		os.Args = []string{"kbsearch", arg}
		if err := Execute(); err != nil {
			t.Errorf("Execute() with %q returned error: %v", arg, err)
		}
	}
}
