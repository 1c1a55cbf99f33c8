//go:build cgo

package main

/*
#include "bebop_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

//export bebop_decode_sensor_reading
func bebop_decode_sensor_reading(ctx *C.BebopCtx, data *C.uint8_t, n C.size_t, out *C.VSensorReading) C.int32_t {
	ac := ctxOf(ctx)
	if out == nil {
		return C.int32_t(engine.DecodeReading(ac, bytesOf(data, n), nil))
	}
	var r sensor.Reading
	st := engine.DecodeReading(ac, bytesOf(data, n), &r)
	if err := flatten(ac, &r, out); err != nil {
		return C.int32_t(reject(ac, err))
	}
	return C.int32_t(st)
}

//export bebop_free_sensor_reading
func bebop_free_sensor_reading(_ *C.BebopCtx, reading *C.VSensorReading) {
	if reading != nil {
		*reading = C.VSensorReading{}
	}
}

//export bebop_encoded_size_sensor_reading
func bebop_encoded_size_sensor_reading(in *C.VSensorReading) C.size_t {
	if in == nil {
		return 0
	}
	r, err := readingOf(in)
	if err != nil {
		return 0
	}
	n, st := engine.EncodedSize(&r)
	if st != abi.StatusOK {
		return 0
	}
	return C.size_t(n)
}

//export bebop_encode_sensor_reading
func bebop_encode_sensor_reading(ctx *C.BebopCtx, in *C.VSensorReading, out *C.uint8_t, outLen C.size_t, written *C.size_t) C.int32_t {
	if written != nil {
		*written = 0
	}
	ac := ctxOf(ctx)
	if ac == nil || in == nil {
		_, st := engine.EncodeReading(ac, nil, nil)
		return C.int32_t(st)
	}
	r, err := readingOf(in)
	if err != nil {
		return C.int32_t(reject(ac, err))
	}
	n, st := engine.EncodeReading(ac, &r, bytesOf(out, outLen))
	if written != nil {
		*written = C.size_t(n)
	}
	return C.int32_t(st)
}

//export bebop_encode_batch_readings
func bebop_encode_batch_readings(ctx *C.BebopCtx, readings *C.VSensorReading, count C.size_t, out *C.uint8_t, outLen C.size_t) C.size_t {
	ac := ctxOf(ctx)
	if ac == nil || readings == nil {
		return C.size_t(engine.EncodeBatch(ac, nil, nil))
	}
	rs := make([]sensor.Reading, int(count))
	if count > 0 {
		in := unsafe.Slice(readings, int(count))
		for i := range in {
			r, err := readingOf(&in[i])
			if err != nil {
				reject(ac, err)
				return 0
			}
			rs[i] = r
		}
	}
	return C.size_t(engine.EncodeBatch(ac, rs, bytesOf(out, outLen)))
}

//export bebop_decode_stream
func bebop_decode_stream(ctx *C.BebopCtx, data *C.uint8_t, n C.size_t, out **C.VSensorReading, count *C.size_t) C.int32_t {
	ac := ctxOf(ctx)
	if out == nil || count == nil {
		if ac == nil {
			return C.int32_t(abi.StatusNullCtx)
		}
		return C.int32_t(reject(ac, errNullOut))
	}
	*out, *count = nil, 0
	rs, st := engine.DecodeStream(ac, bytesOf(data, n))
	if len(rs) == 0 {
		return C.int32_t(st)
	}
	arr, err := allocReadings(ac, len(rs))
	if err != nil {
		return C.int32_t(reject(ac, err))
	}
	for i := range rs {
		if err := flatten(ac, &rs[i], &arr[i]); err != nil {
			return C.int32_t(reject(ac, err))
		}
	}
	*out, *count = &arr[0], C.size_t(len(rs))
	return C.int32_t(st)
}
