package types

import "errors"

var (
	// ErrEmptyTarget is returned when the target directory is an empty string
	ErrEmptyTarget = errors.New("empty target dir")

	// ErrNoSource is returned when no source was provided
	ErrNoSource = errors.New("no source provided, see help")

	// ErrInvalidSource is returned for a source name that is not one of the known sources
	ErrInvalidSource = errors.New("invalid source")

	// ErrSourceNotSupported is returned for sources that are known but not implemented yet
	ErrSourceNotSupported = errors.New("source not yet supported")

	// ErrInvalidTFM is returned for a malformed target framework moniker
	ErrInvalidTFM = errors.New("invalid target framework moniker")

	// ErrUnexpectedStatus is returned when the package registry answers with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrFrameworkDirNotFound is returned when a package has no build/.NETFramework/<version> directory
	ErrFrameworkDirNotFound = errors.New("framework directory not found in package")

	// ErrAmbiguousFrameworkDir is returned when a package has more than one framework version directory
	ErrAmbiguousFrameworkDir = errors.New("more than one framework directory in package")

	// ErrInvalidArchivePath is returned for archive entries that would be written outside the extraction root
	ErrInvalidArchivePath = errors.New("invalid file path in archive")
)
