package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// validateTimeout bounds the project validation command.
const validateTimeout = 5 * time.Minute

// NpmValidator delegates validation to the project's own toolchain by
// running `npm run validate` in the project root. Stdout and stderr are
// passed through untouched; what the project prints is its contract.
type NpmValidator struct{}

func (NpmValidator) Validate(ctx context.Context, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "npm", "run", "validate")
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("npm run validate timed out after %s", validateTimeout)
		}
		return fmt.Errorf("npm run validate: %w", err)
	}
	return nil
}
