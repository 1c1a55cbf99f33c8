//go:build !cgo

// Command libbebop needs cgo. Without it this stub builds in its place so
// that ./... still compiles; the C ABI is only produced by a cgo build with
// -buildmode=c-shared or -buildmode=c-archive.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "libbebop: built without cgo; rebuild with CGO_ENABLED=1 -buildmode=c-shared")
	os.Exit(1)
}
