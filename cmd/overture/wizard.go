package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/overture/pkg/controllers/admin"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

type wizardAnswers struct {
	Level     string
	Format    string
	AdminAddr string
	Namespace string
	EnvFiles  string // comma separated
	Disabled  []string
}

func runInit(path string) error {
	data, err := runWizard()
	if err != nil {
		return err
	}

	return writeConfigFile(path, data)
}

func runWizard() ([]byte, error) {
	a := wizardAnswers{
		Level:     "info",
		Format:    "text",
		AdminAddr: admin.DefaultAddr,
		Namespace: "overture",
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Log level").
			Options(
				huh.NewOption("Debug", "debug"),
				huh.NewOption("Info", "info"),
				huh.NewOption("Warn", "warn"),
				huh.NewOption("Error", "error"),
			).
			Value(&a.Level),
		huh.NewSelect[string]().
			Title("Log format").
			Options(
				huh.NewOption("Text", "text"),
				huh.NewOption("JSON", "json"),
			).
			Value(&a.Format),
		huh.NewInput().Title("Admin listen address").Value(&a.AdminAddr).Validate(validateListenAddr),
		huh.NewInput().Title("Metric namespace").Value(&a.Namespace).Validate(validateMetricNamespace),
		huh.NewInput().Title(".env files to load (comma separated, empty for none)").Value(&a.EnvFiles),
		huh.NewMultiSelect[string]().
			Title("Disable built-in controllers").
			Options(
				huh.NewOption("Environment loader", "env"),
				huh.NewOption("Telemetry", "telemetry"),
				huh.NewOption("Admin endpoint", "admin"),
			).
			Value(&a.Disabled),
	)).Run(); err != nil {
		return nil, err
	}

	return marshalWizardConfig(a)
}

func validateListenAddr(s string) error {
	if s == "" {
		return nil
	}

	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("must be a host:port address")
	}

	return nil
}

var metricNamespaceRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateMetricNamespace(s string) error {
	if s == "" {
		return nil
	}

	if !metricNamespaceRe.MatchString(s) {
		return fmt.Errorf("must start with a letter or underscore and contain only letters, digits, and underscores")
	}

	return nil
}

// YAML output types. Pointers plus omitempty keep the generated file down to
// the sections the user actually configured.

type configYAML struct {
	EnvFiles  []string       `yaml:"env_files,omitempty"`
	Log       *logYAML       `yaml:"log,omitempty"`
	Admin     *adminYAML     `yaml:"admin,omitempty"`
	Telemetry *telemetryYAML `yaml:"telemetry,omitempty"`
	Disabled  []string       `yaml:"disabled,omitempty"`
}

type logYAML struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type adminYAML struct {
	Addr string `yaml:"addr"`
}

type telemetryYAML struct {
	Namespace string `yaml:"namespace"`
}

func marshalWizardConfig(a wizardAnswers) ([]byte, error) {
	yc := configYAML{
		Log:      &logYAML{Level: a.Level, Format: a.Format},
		Disabled: a.Disabled,
	}

	for _, f := range strings.Split(a.EnvFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			yc.EnvFiles = append(yc.EnvFiles, f)
		}
	}

	if a.AdminAddr != "" {
		yc.Admin = &adminYAML{Addr: a.AdminAddr}
	}

	if a.Namespace != "" {
		yc.Telemetry = &telemetryYAML{Namespace: a.Namespace}
	}

	return yaml.Marshal(yc)
}

// computeDiff returns a unified diff between oldContent and newContent labeled
// with the given path. Returns an empty string when the contents are equal.
func computeDiff(path, oldContent, newContent string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}

	return result
}

// writeConfigFile writes the generated config, showing a diff and asking for
// confirmation before overwriting an existing file.
func writeConfigFile(path string, data []byte) error {
	existing, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err == nil {
		diff := computeDiff(path, string(existing), string(data))
		if diff == "" {
			fmt.Printf("%s is already up to date\n", path)

			return nil
		}

		var overwrite bool
		if err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Overwrite %s?", path)).
				Description(diff).
				Value(&overwrite),
		)).Run(); err != nil {
			return err
		}

		if !overwrite {
			return fmt.Errorf("aborted, %s left unchanged", path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read existing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)

	return nil
}
