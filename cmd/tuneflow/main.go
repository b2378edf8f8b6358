package main

import (
	"errors"
	"fmt"
	"os"

	"tuneflow/internal/cli"
	"tuneflow/internal/launcher"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}
	// The wrapper's exit status must equal the trainer's; the trainer's
	// own output already explains the failure.
	var ee *launcher.ExitError
	if errors.As(err, &ee) {
		os.Exit(ee.Code)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
