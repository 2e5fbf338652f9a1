// Package manifest loads and generates the deployment manifest
// (.deployment-config.json) that records a project's deployment topology:
// GitHub coordinates, Vercel project and URLs, and per-environment branch
// and backing-store references. Deploy and verify commands only read the
// manifest; only the bootstrapper writes it.
package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors for manifest operations.
var (
	// ErrNotARepository indicates no enclosing git repository was found.
	ErrNotARepository = errors.New("manifest: not inside a git repository")

	// ErrManifestMissing indicates the manifest file does not exist.
	// This is a setup error: the project was never bootstrapped.
	ErrManifestMissing = errors.New("manifest: deployment config not found")

	// ErrManifestMalformed indicates the manifest file is not valid JSON.
	// This is a corruption error, distinct from a missing file.
	ErrManifestMalformed = errors.New("manifest: deployment config is not valid JSON")

	// ErrInvalidManifest indicates the manifest violates a structural invariant.
	ErrInvalidManifest = errors.New("manifest: invalid deployment config")
)

// FieldError reports a single invalid manifest field.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// Unwrap ties every field error back to ErrInvalidManifest for errors.Is.
func (e *FieldError) Unwrap() error {
	return ErrInvalidManifest
}
