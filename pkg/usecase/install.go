package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refasm/pkg/domain/interfaces"
	"github.com/m-mizutani/refasm/pkg/domain/model"
	"github.com/m-mizutani/refasm/pkg/domain/types"
	"github.com/m-mizutani/refasm/pkg/infra/marker"
	"github.com/m-mizutani/refasm/pkg/utils/fsutil"
)

type installUseCase struct {
	nuget interfaces.PackageRegistry
}

// InstallOption is a functional option for the install use case
type InstallOption func(*installUseCase)

// WithNuGet sets the registry used for the nuget source
func WithNuGet(registry interfaces.PackageRegistry) InstallOption {
	return func(uc *installUseCase) {
		uc.nuget = registry
	}
}

// NewInstall creates a new instance of InstallUseCase
func NewInstall(opts ...InstallOption) interfaces.InstallUseCase {
	uc := &installUseCase{}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Install validates the request, takes the in-progress marker of the
// target directory and runs the selected source. The marker is only
// removed after the source succeeded; on error it is left in place.
func (uc *installUseCase) Install(ctx context.Context, req *model.InstallRequest) (*model.InstallResult, error) {
	logger := ctxlog.From(ctx)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	guard := marker.New(req.TargetDir)
	if err := guard.EnsureDir(); err != nil {
		return nil, err
	}

	if req.Force {
		logger.Warn("Removing in-progress marker", "marker", guard.InProgressPath())
		if err := guard.Release(); err != nil {
			return nil, err
		}
	}

	acquired, err := guard.Acquire()
	if err != nil {
		return nil, err
	}
	if !acquired {
		logger.Info("Reference assemblies are already being handled, nothing to do",
			"marker", guard.InProgressPath(),
		)
		return &model.InstallResult{Skipped: true}, nil
	}

	reinstall, err := guard.Done()
	if err != nil {
		return nil, err
	}
	if reinstall {
		logger.Info("Reference assemblies were installed before, reinstalling",
			"marker", guard.DonePath(),
		)
	}

	result, err := uc.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Reinstalled = reinstall

	if err := guard.MarkDone(); err != nil {
		return nil, err
	}
	if err := guard.Release(); err != nil {
		return nil, err
	}

	return result, nil
}

func validateRequest(req *model.InstallRequest) error {
	if req.TargetDir == "" {
		return types.ErrEmptyTarget
	}
	if _, err := types.ParseSource(string(req.Source)); err != nil {
		return err
	}
	for _, tfm := range req.TFMs {
		if err := tfm.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (uc *installUseCase) dispatch(ctx context.Context, req *model.InstallRequest) (*model.InstallResult, error) {
	switch req.Source {
	case types.SourceLocal, types.SourceArtifactory:
		return nil, goerr.Wrap(types.ErrSourceNotSupported, "source "+req.Source.String(),
			goerr.V("source", req.Source),
		)
	case types.SourceNuGet:
		return uc.installFromNuGet(ctx, req)
	default:
		return nil, types.ErrNoSource
	}
}

func (uc *installUseCase) installFromNuGet(ctx context.Context, req *model.InstallRequest) (*model.InstallResult, error) {
	logger := ctxlog.From(ctx)

	if uc.nuget == nil {
		return nil, goerr.New("NuGet registry is not configured")
	}

	tempDir := req.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	pkgVersion := req.PackageVersion
	if pkgVersion == "" {
		pkgVersion = model.DefaultPackageVersion
	}
	tfms := req.TFMs
	if len(tfms) == 0 {
		tfms = types.DefaultTFMs
	}

	logger.Info("Downloading reference assemblies from NuGet",
		"target_dir", req.TargetDir,
		"temp_dir", tempDir,
		"package_version", pkgVersion,
		"tfms", tfms,
	)

	for _, tfm := range tfms {
		if !tfm.IsKnown() {
			logger.Warn("Unknown target framework, the package may not exist", "tfm", tfm)
		}
	}

	result := &model.InstallResult{}
	for _, tfm := range tfms {
		ref := &model.PackageRef{TFM: tfm, Version: pkgVersion}
		fw, err := uc.installFramework(ctx, ref, req.TargetDir, tempDir, req.KeepTemp)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to install reference assemblies", goerr.V("tfm", tfm))
		}
		result.Frameworks = append(result.Frameworks, fw)
	}

	return result, nil
}

func (uc *installUseCase) installFramework(ctx context.Context, ref *model.PackageRef, targetDir, tempDir string, keepTemp bool) (*model.FrameworkResult, error) {
	logger := ctxlog.From(ctx)

	fw := &model.FrameworkResult{
		TFM:       ref.TFM,
		Version:   ref.TFM.Version(),
		TargetDir: filepath.Join(targetDir, model.FrameworkDirName, ref.TFM.Version()),
		URL:       uc.nuget.PackageURL(ref),
	}

	if err := fsutil.ResetDir(fw.TargetDir); err != nil {
		return nil, err
	}

	logger.Info("Downloading reference assemblies",
		"tfm", ref.TFM,
		"url", fw.URL,
	)

	archivePath := filepath.Join(tempDir, ref.ArchiveName())
	n, err := uc.nuget.Download(ctx, ref, archivePath)
	if err != nil {
		return nil, err
	}
	fw.Downloaded = n

	extracted, err := extractZip(ctx, archivePath, filepath.Join(tempDir, ref.ExtractDirName()))
	if err != nil {
		return nil, err
	}
	fw.Extracted = len(extracted.Files)
	fw.ExtractedSize = extracted.Size

	srcRoot := filepath.Join(extracted.Dir, "build", model.FrameworkDirName)
	versionDir, err := findFrameworkDir(srcRoot)
	if err != nil {
		return nil, err
	}

	copied, err := fsutil.CopyTree(ctx, filepath.Join(srcRoot, versionDir), fw.TargetDir)
	if err != nil {
		return nil, err
	}
	fw.Files = copied

	logger.Info("Installed reference assemblies",
		"tfm", ref.TFM,
		"package_dir", versionDir,
		"target_dir", fw.TargetDir,
		"downloaded_bytes", fw.Downloaded,
		"extracted_files", fw.Extracted,
		"extracted_bytes", fw.ExtractedSize,
		"file_count", fw.Files,
	)

	if !keepTemp {
		cleanupTemp(ctx, archivePath, extracted.Dir)
	}

	return fw, nil
}

// findFrameworkDir returns the single version directory under
// build/.NETFramework of an extracted package
func findFrameworkDir(root string) (string, error) {
	dirs, err := fsutil.SubDirs(root)
	if err != nil {
		return "", goerr.Wrap(types.ErrFrameworkDirNotFound, err.Error(), goerr.V("dir", root))
	}

	switch len(dirs) {
	case 0:
		return "", goerr.Wrap(types.ErrFrameworkDirNotFound, "no version directory", goerr.V("dir", root))
	case 1:
		return dirs[0], nil
	default:
		return "", goerr.Wrap(types.ErrAmbiguousFrameworkDir, "expected exactly one version directory",
			goerr.V("dir", root),
			goerr.V("found", dirs),
		)
	}
}

func cleanupTemp(ctx context.Context, paths ...string) {
	logger := ctxlog.From(ctx)
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			logger.Warn("Failed to remove temporary file", "path", p, "error", err)
			continue
		}
		logger.Debug("Removed temporary file", "path", p)
	}
}
