//go:build cgo

// Command libbebop builds the C ABI as a shared or static library:
//
//	go build -buildmode=c-shared -o libbebop.so ./cmd/libbebop
//
// Callers include bebop_ffi.h. Contexts are opaque handles, and every view
// a decode returns points into context memory obtained from malloc, so it
// stays valid on the C side until the context is reset or freed.
//
// Set BEBOP_FFI_LOG=debug|info|warn|error to log engine diagnostics to
// stderr.
package main

/*
#include <stdlib.h>
#include "bebop_types.h"
*/
import "C"

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/callback"
	"github.com/unkn0wn-root/bebopffi/internal/handle"
	zaplog "github.com/unkn0wn-root/bebopffi/log/zap"
)

// The single process-wide registry the header's register/invoke functions
// operate on.
var callbacks = callback.New()

var (
	engine   bebopffi.Engine
	contexts handle.Table[*arena.Context]

	// status messages for failures with no context to own a string
	staticMessages = map[abi.Status]*C.char{}
	emptyString    = C.CString("")
)

func init() {
	for _, st := range abi.Statuses() {
		staticMessages[st] = C.CString(st.Message())
	}
	eng, err := bebopffi.New(bebopffi.Options{
		Logger:    logger(),
		Callbacks: callbacks,
		Arena:     arena.Options{Backing: mallocBacking{}},
	})
	if err != nil {
		panic(err)
	}
	engine = eng
}

func logger() bebopffi.Logger {
	v := strings.TrimSpace(os.Getenv("BEBOP_FFI_LOG"))
	if v == "" {
		return bebopffi.NopLogger{}
	}
	lvl, err := zapcore.ParseLevel(v)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	z, err := cfg.Build()
	if err != nil {
		return bebopffi.NopLogger{}
	}
	return zaplog.New(z)
}

func staticMessage(st abi.Status) *C.char {
	if p, ok := staticMessages[st]; ok {
		return p
	}
	return staticMessages[abi.StatusDecodeFailed]
}

func main() {}
