package cmd

import "testing"

func TestRootCommandRegistration(t *testing.T) {
	if rootCmd.Use != "talk" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "talk")
	}

	// Compare by Name(), not Use which includes args.
	expected := []string{"connect", "run", "status", "runs"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRunsSubcommands(t *testing.T) {
	expected := []string{"list", "show", "watch"}
	registered := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("runs subcommand %q not registered", name)
		}
	}
}

func TestRunCommandFlags(t *testing.T) {
	for _, flag := range []string{"topic", "max-rounds", "text-limit"} {
		if runCmd.Flags().Lookup(flag) == nil {
			t.Errorf("run flag %q not defined", flag)
		}
	}
}
