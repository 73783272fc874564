package interfaces

import (
	"context"

	"github.com/m-mizutani/refasm/pkg/domain/model"
)

// PackageRegistry defines operations for fetching reference assembly packages
type PackageRegistry interface {
	// PackageURL returns the download URL of the package
	PackageURL(ref *model.PackageRef) string

	// Download writes the package archive to dst and returns the number of bytes written
	Download(ctx context.Context, ref *model.PackageRef, dst string) (int64, error)
}
