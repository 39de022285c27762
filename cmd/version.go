package cmd

import (
	"fmt"
	"runtime"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// RunVersion prints version information.
func RunVersion() {
	fmt.Printf("ufwatch %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
}
