package main

import (
	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:  "ras-basic-version",
		Steps: []harness.Step{
			harness.NewStep("Run 'ras version'", func(ctx *harness.Context) error {
				stdout, _, code, err := ras(ctx, "version")
				if err != nil {
					return err
				}
				if err := assert.Equal(0, code, "ras version should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(stdout, "ras ", "Output should name the binary"); err != nil {
					return err
				}
				return assert.Contains(stdout, "Commit:", "Output should contain Commit")
			}),
		},
	}
}

// ConfigMissingScenario runs ras outside any workspace.
func ConfigMissingScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "ras-config-missing",
		Description: "Reports a missing ras.yml with a hint instead of a stack of errors.",
		Tags:        []string{"ras", "config"},
		Steps: []harness.Step{
			harness.NewStep("Run 'ras config' in an empty directory", func(ctx *harness.Context) error {
				ctx.Set("workspace", ctx.NewDir("empty"))
				_, stderr, code, err := ras(ctx, "config")
				if err != nil {
					return err
				}
				if err := assert.Equal(1, code, "ras config should fail"); err != nil {
					return err
				}
				return assert.Contains(stderr, "no ras.yml found", "a friendly message is printed")
			}),
		},
	}
}
