package model

import "github.com/m-mizutani/refasm/pkg/domain/types"

// InstallRequest describes one run of the installer
type InstallRequest struct {
	Source         types.Source
	TargetDir      string
	TFMs           []types.TFM
	PackageVersion string
	TempDir        string // Falls back to os.TempDir() when empty
	KeepTemp       bool   // Keep downloaded archives and extracted trees
	Force          bool   // Remove a stale in-progress marker before starting
}

// InstallResult summarizes what an install run did
type InstallResult struct {
	// Skipped is true when another run holds the in-progress marker
	Skipped     bool
	// Reinstalled is true when the completion marker of an earlier run was found
	Reinstalled bool
	Frameworks  []*FrameworkResult
}

// FrameworkResult describes one installed framework version
type FrameworkResult struct {
	TFM           types.TFM
	Version       string // Directory name under .NETFramework, e.g. v4.0
	TargetDir     string
	URL           string
	Downloaded    int64 // Archive size in bytes
	Extracted     int   // Number of archive entries extracted
	ExtractedSize int64 // Uncompressed size of the archive in bytes
	Files         int   // Number of files copied
}
