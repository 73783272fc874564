package interfaces

import (
	"context"

	"github.com/m-mizutani/refasm/pkg/domain/model"
)

// InstallUseCase defines the reference assemblies installation flow
type InstallUseCase interface {
	// Install guards the target directory, dispatches to the requested
	// source and writes the completion marker on success
	Install(ctx context.Context, req *model.InstallRequest) (*model.InstallResult, error)
}
