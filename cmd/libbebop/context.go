//go:build cgo

package main

/*
#include "bebop_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/internal/handle"
)

// ctxOf resolves a handle. Unknown and freed handles resolve to nil, which
// the engine reports as a null context.
func ctxOf(ctx *C.BebopCtx) *arena.Context {
	if ctx == nil {
		return nil
	}
	ac, _ := contexts.Get(handle.Handle(uintptr(unsafe.Pointer(ctx))))
	return ac
}

// reject records an adapter-level failure the way the engine records its
// own.
func reject(ac *arena.Context, err error) abi.Status {
	st := abi.FromError(err)
	if ac != nil {
		ac.Fail(st, err.Error())
	}
	callbacks.InvokeError(st, err.Error())
	return st
}

//export bebop_version
func bebop_version() C.uint32_t {
	return C.uint32_t(engine.Version())
}

//export bebop_ctx_new
func bebop_ctx_new() *C.BebopCtx {
	ac, st := engine.NewContext()
	if st != abi.StatusOK {
		return nil
	}
	h := contexts.Put(ac)
	return (*C.BebopCtx)(unsafe.Pointer(uintptr(h)))
}

//export bebop_ctx_free
func bebop_ctx_free(ctx *C.BebopCtx) {
	if ctx == nil {
		return
	}
	if ac, ok := contexts.Del(handle.Handle(uintptr(unsafe.Pointer(ctx)))); ok {
		engine.DestroyContext(ac)
	}
}

//export bebop_ctx_reset
func bebop_ctx_reset(ctx *C.BebopCtx) {
	engine.ResetContext(ctxOf(ctx))
}

//export bebop_ctx_last_error
func bebop_ctx_last_error(ctx *C.BebopCtx) *C.char {
	ac := ctxOf(ctx)
	if ac == nil {
		return staticMessage(abi.StatusNullCtx)
	}
	if ac.LastError() == "" {
		if st := engine.LastStatus(ac); st != abi.StatusOK {
			return staticMessage(st)
		}
		return emptyString
	}
	v, err := ac.LastErrorCString()
	if err != nil || v == nil {
		return staticMessage(engine.LastStatus(ac))
	}
	return (*C.char)(unsafe.Pointer(unsafe.SliceData(v)))
}
