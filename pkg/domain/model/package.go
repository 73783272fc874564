package model

import "github.com/m-mizutani/refasm/pkg/domain/types"

const (
	// ReferenceAssembliesPackagePrefix is the NuGet package ID prefix for .NET Framework reference assemblies
	ReferenceAssembliesPackagePrefix = "Microsoft.NETFramework.ReferenceAssemblies."

	// DefaultPackageVersion is the pinned reference assemblies package version
	DefaultPackageVersion = "1.0.3"

	// FrameworkDirName is the directory holding per-version reference assemblies,
	// both inside the package under build/ and in the target directory
	FrameworkDirName = ".NETFramework"
)

// PackageRef identifies one reference assemblies package
type PackageRef struct {
	TFM     types.TFM
	Version string
}

// PackageID returns the NuGet package ID, e.g. Microsoft.NETFramework.ReferenceAssemblies.net40
func (x *PackageRef) PackageID() string {
	return ReferenceAssembliesPackagePrefix + string(x.TFM)
}

// ArchiveName returns the file name the package archive is stored under in the temp directory
func (x *PackageRef) ArchiveName() string {
	return x.baseName() + ".zip"
}

// ExtractDirName returns the directory name the package is extracted into in the temp directory
func (x *PackageRef) ExtractDirName() string {
	return x.baseName()
}

func (x *PackageRef) baseName() string {
	return "ref_" + string(x.TFM)
}
