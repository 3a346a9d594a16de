package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestAppInstallFlags(t *testing.T) {
	for _, name := range []string{"label", "arg", "no-ask", "no-rollback"} {
		if appInstallCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected install flag --%s to be registered", name)
		}
	}
}

func TestAppUpgradeFlags(t *testing.T) {
	for _, name := range []string{"from", "arg", "force", "no-ask"} {
		if appUpgradeCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected upgrade flag --%s to be registered", name)
		}
	}
}

func TestAppRemoveFlags(t *testing.T) {
	if appRemoveCmd.Flags().Lookup("purge") == nil {
		t.Error("Expected remove flag --purge to be registered")
	}
}

func TestAppChangeURLFlags(t *testing.T) {
	for _, name := range []string{"domain", "path"} {
		if appChangeURLCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected change-url flag --%s to be registered", name)
		}
	}
}

func TestOutputFlagsRegistered(t *testing.T) {
	for _, cmd := range []*cobra.Command{appListCmd, appMapCmd, appInfoCmd, catalogListCmd, operationsListCmd} {
		for _, name := range []string{"output", "no-headers"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("Expected %s flag --%s to be registered", cmd.Name(), name)
			}
		}
	}
}

func TestAppInstallHelp(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"app", "install", "--help"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Error executing install help: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"install <app>", "--no-rollback", "--arg"} {
		if !strings.Contains(output, want) {
			t.Errorf("Help output should contain %q. Got: %q", want, output)
		}
	}
}

func TestAppChangeURLRequiresTarget(t *testing.T) {
	originalDomain, originalPath := changeURLDomain, changeURLPath
	defer func() { changeURLDomain, changeURLPath = originalDomain, originalPath }()

	changeURLDomain, changeURLPath = "", ""
	err := appChangeURLCmd.RunE(appChangeURLCmd, []string{"wordpress"})
	if err == nil || !strings.Contains(err.Error(), "--domain or --path") {
		t.Errorf("Expected missing-target error, got %v", err)
	}
}

func TestAppSettingFlagConflict(t *testing.T) {
	originalDelete := settingDelete
	defer func() {
		settingDelete = originalDelete
		settingValue = ""
	}()

	if err := appSettingCmd.Flags().Set("value", "x"); err != nil {
		t.Fatalf("Setting flag failed: %v", err)
	}
	settingDelete = true

	err := appSettingCmd.RunE(appSettingCmd, []string{"wordpress", "db_name"})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("Expected mutual-exclusion error, got %v", err)
	}
}

func TestAppUpgradeFromRequiresSingleInstance(t *testing.T) {
	originalRef := upgradeRef
	defer func() { upgradeRef = originalRef }()

	upgradeRef = "/srv/packages/wordpress"
	err := appUpgradeCmd.RunE(appUpgradeCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "exactly one instance") {
		t.Errorf("Expected single-instance error, got %v", err)
	}
}
