//go:build cgo

package main

/*
#include <stdlib.h>
#include <string.h>
#include "trampoline.h"
*/
import "C"

import (
	"unsafe"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/callback"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

func userPtr(u any) unsafe.Pointer {
	p, _ := u.(unsafe.Pointer)
	return p
}

// withCString hands fn a NUL-terminated copy of s; NULL for "".
func withCString(s string, fn func(*C.char)) {
	if s == "" {
		fn(nil)
		return
	}
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	fn(cs)
}

//export bebop_register_data_callback
func bebop_register_data_callback(cb C.bebop_data_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterData(nil, nil)
		return
	}
	callbacks.RegisterData(func(data []byte, u any) {
		p, n := cbytes(data)
		C.bebop_call_data(cb, p, n, userPtr(u))
	}, user)
}

//export bebop_register_result_callback
func bebop_register_result_callback(cb C.bebop_result_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterResult(nil, nil)
		return
	}
	callbacks.RegisterResult(func(res callback.Result, u any) {
		p, n := cbytes(res.Data)
		withCString(res.Message, func(msg *C.char) {
			C.bebop_call_result(cb, C.int32_t(res.Code), msg, p, n, userPtr(u))
		})
	}, user)
}

//export bebop_register_progress_callback
func bebop_register_progress_callback(cb C.bebop_progress_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterProgress(nil, nil)
		return
	}
	callbacks.RegisterProgress(func(current, total uint64, u any) bool {
		return bool(C.bebop_call_progress(cb, C.size_t(current), C.size_t(total), userPtr(u)))
	}, user)
}

//export bebop_register_event_callback
func bebop_register_event_callback(cb C.bebop_event_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterEvent(nil, nil)
		return
	}
	callbacks.RegisterEvent(func(event int32, payload []byte, u any) {
		p, n := cbytes(payload)
		C.bebop_call_event(cb, C.int32_t(event), p, n, userPtr(u))
	}, user)
}

//export bebop_register_error_callback
func bebop_register_error_callback(cb C.bebop_error_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterError(nil, nil)
		return
	}
	callbacks.RegisterError(func(code abi.Status, message string, u any) {
		withCString(message, func(msg *C.char) {
			C.bebop_call_error(cb, C.int32_t(code), msg, userPtr(u))
		})
	}, user)
}

//export bebop_register_reading_callback
func bebop_register_reading_callback(cb C.bebop_reading_callback_t, user unsafe.Pointer) {
	if cb == nil {
		callbacks.RegisterReading(nil, nil)
		return
	}
	callbacks.RegisterReading(func(r *sensor.Reading, u any) {
		err := withCReading(r, func(cr *C.VSensorReading) {
			C.bebop_call_reading(cb, cr, userPtr(u))
		})
		if err != nil {
			callbacks.InvokeError(abi.FromError(err), err.Error())
		}
	}, user)
}

//export bebop_invoke_data
func bebop_invoke_data(data *C.uint8_t, n C.size_t) {
	callbacks.InvokeData(bytesOf(data, n))
}

//export bebop_invoke_result
func bebop_invoke_result(code C.int32_t, message *C.char, data *C.uint8_t, n C.size_t) {
	res := callback.Result{Code: abi.Status(code), Data: bytesOf(data, n)}
	if message != nil {
		res.Message = C.GoString(message)
	}
	callbacks.InvokeResult(res)
}

//export bebop_invoke_progress
func bebop_invoke_progress(current, total C.size_t) C.bool {
	return C.bool(callbacks.InvokeProgress(uint64(current), uint64(total)))
}

//export bebop_invoke_event
func bebop_invoke_event(event C.int32_t, data *C.uint8_t, n C.size_t) {
	callbacks.InvokeEvent(int32(event), bytesOf(data, n))
}

//export bebop_invoke_error
func bebop_invoke_error(code C.int32_t, message *C.char) {
	var msg string
	if message != nil {
		msg = C.GoString(message)
	}
	callbacks.InvokeError(abi.Status(code), msg)
}

//export bebop_invoke_reading
func bebop_invoke_reading(in *C.VSensorReading) {
	if in == nil {
		return
	}
	r, err := readingOf(in)
	if err != nil {
		callbacks.InvokeError(abi.FromError(err), err.Error())
		return
	}
	r.ErrCode = abi.Status(in.error_code)
	if in.error_message != nil {
		n := C.strlen(in.error_message)
		r.ErrMessage = arena.View(unsafe.Slice((*byte)(unsafe.Pointer(in.error_message)), int(n)))
	}
	callbacks.InvokeReading(&r)
}
