package config

import (
	"github.com/m-mizutani/refasm/pkg/domain/model"
	"github.com/m-mizutani/refasm/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Install holds the installation request configuration
type Install struct {
	Source         string
	Target         string
	TFMs           []string
	PackageVersion string
	TempDir        string
	KeepTemp       bool
	Force          bool
	ConfigFile     string
}

// Flags returns CLI flags for install configuration
func (c *Install) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Reference assemblies source (" + types.SourceChoices() + ") (required unless set in --config)",
			Destination: &c.Source,
			Sources:     cli.EnvVars("REFASM_SOURCE"),
		},
		&cli.StringFlag{
			Name:        "target",
			Usage:       "Reference assemblies target directory (required unless set in --config)",
			Destination: &c.Target,
			Sources:     cli.EnvVars("REFASM_TARGET"),
		},
		&cli.StringSliceFlag{
			Name:        "tfm",
			Usage:       "Target framework moniker to install (repeatable)",
			Value:       tfmNames(types.DefaultTFMs),
			Destination: &c.TFMs,
			Sources:     cli.EnvVars("REFASM_TFMS"),
		},
		&cli.StringFlag{
			Name:        "package-version",
			Usage:       "Reference assemblies package version",
			Value:       model.DefaultPackageVersion,
			Destination: &c.PackageVersion,
			Sources:     cli.EnvVars("REFASM_PACKAGE_VERSION"),
		},
		&cli.StringFlag{
			Name:        "temp-dir",
			Usage:       "Directory for downloaded archives (default: system temp directory)",
			Destination: &c.TempDir,
			Sources:     cli.EnvVars("REFASM_TEMP_DIR"),
		},
		&cli.BoolFlag{
			Name:        "keep-temp",
			Usage:       "Keep downloaded archives and extracted packages",
			Destination: &c.KeepTemp,
			Sources:     cli.EnvVars("REFASM_KEEP_TEMP"),
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Remove a stale in-progress marker before starting",
			Destination: &c.Force,
			Sources:     cli.EnvVars("REFASM_FORCE"),
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML configuration file",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("REFASM_CONFIG"),
		},
	}
}

// ApplyFile copies values from the config file for flags that were not set
func (c *Install) ApplyFile(f *File, isSet func(name string) bool) {
	if f.Source != "" && !isSet("source") {
		c.Source = f.Source
	}
	if f.Target != "" && !isSet("target") {
		c.Target = f.Target
	}
	if len(f.TFMs) > 0 && !isSet("tfm") {
		c.TFMs = f.TFMs
	}
	if f.PackageVersion != "" && !isSet("package-version") {
		c.PackageVersion = f.PackageVersion
	}
	if f.TempDir != "" && !isSet("temp-dir") {
		c.TempDir = f.TempDir
	}
}

// Request builds the install request. Values are validated by the use case.
func (c *Install) Request() *model.InstallRequest {
	tfms := make([]types.TFM, 0, len(c.TFMs))
	for _, name := range c.TFMs {
		tfms = append(tfms, types.TFM(name))
	}

	return &model.InstallRequest{
		Source:         types.Source(c.Source),
		TargetDir:      c.Target,
		TFMs:           tfms,
		PackageVersion: c.PackageVersion,
		TempDir:        c.TempDir,
		KeepTemp:       c.KeepTemp,
		Force:          c.Force,
	}
}

func tfmNames(tfms []types.TFM) []string {
	names := make([]string, 0, len(tfms))
	for _, tfm := range tfms {
		names = append(names, string(tfm))
	}
	return names
}
