// Command gradebook keeps student records, per-subject scores and a personal
// study-progress checklist.
//
// Storage is selected by configuration (file, postgres or redis); see the
// config package for keys and GRADEBOOK_* environment overrides.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status so scripts can tell
// rejected input from missing data and storage trouble.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case shared.IsValidation(err):
		return 2
	case shared.IsNotFound(err):
		return 3
	case shared.IsAlreadyExists(err):
		return 4
	case shared.IsStorage(err):
		return 5
	default:
		return 1
	}
}
