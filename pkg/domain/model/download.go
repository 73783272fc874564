package model

// ExtractResult represents the result of extracting a package archive
type ExtractResult struct {
	Dir   string   // Extraction root
	Files []string // Archive entries written, relative to Dir
	Size  int64    // Total uncompressed size in bytes
}
