package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"
)

// startDetached starts command without waiting for it. The child is reaped in
// the background.
func startDetached(ctx context.Context, command string) error {
	cmd := shellCommand(command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", command, err)
	}
	lifecycle.Go(context.WithoutCancel(ctx), func(context.Context) error {
		return cmd.Wait()
	}, lifecycle.WithErrorHandler(func(error) {
		// Exit status of a detached command is not ours to report.
	}))
	return nil
}
