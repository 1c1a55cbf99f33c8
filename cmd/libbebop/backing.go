//go:build cgo

package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/arena"
)

var errMalloc = errors.New("libbebop: malloc failed")

// mallocBacking keeps arena chunks outside the Go heap.
type mallocBacking struct{}

var _ arena.Backing = mallocBacking{}

func (mallocBacking) Alloc(n int) ([]byte, error) {
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil, errMalloc
	}
	return unsafe.Slice((*byte)(p), n), nil
}

func (mallocBacking) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	C.free(unsafe.Pointer(unsafe.SliceData(b)))
}
