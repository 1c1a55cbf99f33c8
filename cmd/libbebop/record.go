//go:build cgo

package main

/*
#include "bebop_types.h"
*/
import "C"

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

var (
	errNullBytes = errors.Mark(errors.New("libbebop: NULL pointer with non-zero length"), abi.ErrNullData)
	errNullArray = errors.Mark(errors.New("libbebop: NULL metadata array with non-zero count"), abi.ErrNullData)
	errNullOut   = errors.Mark(errors.New("libbebop: NULL output pointer"), abi.ErrNullData)
)

const ptrAlign = int(unsafe.Sizeof(uintptr(0)))

// bytesOf views C memory without copying. nil when p is NULL.
func bytesOf(p *C.uint8_t, n C.size_t) []byte {
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

// cbytes returns a C view of b for the duration of a call.
func cbytes(b []byte) (*C.uint8_t, C.size_t) {
	if len(b) == 0 {
		return nil, 0
	}
	return (*C.uint8_t)(unsafe.Pointer(unsafe.SliceData(b))), C.size_t(len(b))
}

func vbytes(v arena.View) C.VBytes {
	p, n := cbytes(v)
	return C.VBytes{ptr: p, len: n}
}

func viewOf(b C.VBytes) (arena.View, error) {
	if b.ptr == nil {
		if b.len != 0 {
			return nil, errNullBytes
		}
		return nil, nil
	}
	return arena.View(bytesOf(b.ptr, b.len)), nil
}

// readingOf wraps a caller-owned record. Byte fields alias the caller's
// memory.
func readingOf(in *C.VSensorReading) (sensor.Reading, error) {
	var (
		r   sensor.Reading
		err error
	)
	r.Timestamp = uint64(in.timestamp)
	r.SensorType = uint16(in.sensor_type)
	r.Value = float64(in.value)
	if r.SensorID, err = viewOf(in.sensor_id); err != nil {
		return sensor.Reading{}, err
	}
	if r.Unit, err = viewOf(in.unit); err != nil {
		return sensor.Reading{}, err
	}
	if r.Location, err = viewOf(in.location); err != nil {
		return sensor.Reading{}, err
	}
	n := int(in.metadata_count)
	if n == 0 {
		return r, nil
	}
	if in.metadata_keys == nil || in.metadata_values == nil {
		return sensor.Reading{}, errNullArray
	}
	keys := unsafe.Slice(in.metadata_keys, n)
	values := unsafe.Slice(in.metadata_values, n)
	r.MetadataKeys = make([]arena.View, n)
	r.MetadataValues = make([]arena.View, n)
	for i := 0; i < n; i++ {
		if r.MetadataKeys[i], err = viewOf(keys[i]); err != nil {
			return sensor.Reading{}, err
		}
		if r.MetadataValues[i], err = viewOf(values[i]); err != nil {
			return sensor.Reading{}, err
		}
	}
	return r, nil
}

func vbytesArray(ac *arena.Context, vs []arena.View) (*C.VBytes, error) {
	b, err := ac.AllocAligned(len(vs)*int(C.sizeof_VBytes), ptrAlign)
	if err != nil {
		return nil, err
	}
	arr := unsafe.Slice((*C.VBytes)(unsafe.Pointer(unsafe.SliceData(b))), len(vs))
	for i, v := range vs {
		arr[i] = vbytes(v)
	}
	return &arr[0], nil
}

func allocReadings(ac *arena.Context, n int) ([]C.VSensorReading, error) {
	b, err := ac.AllocAligned(n*int(C.sizeof_VSensorReading), ptrAlign)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*C.VSensorReading)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// flatten writes r into out. Byte views must already live in C memory;
// the metadata arrays are allocated from ac.
func flatten(ac *arena.Context, r *sensor.Reading, out *C.VSensorReading) error {
	*out = C.VSensorReading{}
	out.error_code = C.int32_t(r.ErrCode)
	out.error_message = errorMessage(ac, r)
	if r.Failed() {
		return nil
	}
	out.timestamp = C.uint64_t(r.Timestamp)
	out.sensor_id = vbytes(r.SensorID)
	out.sensor_type = C.uint16_t(r.SensorType)
	out.value = C.double(r.Value)
	out.unit = vbytes(r.Unit)
	out.location = vbytes(r.Location)
	if n := r.MetadataCount(); n > 0 {
		keys, err := vbytesArray(ac, r.MetadataKeys)
		if err != nil {
			*out = failedRecord(abi.FromError(err))
			return err
		}
		values, err := vbytesArray(ac, r.MetadataValues)
		if err != nil {
			*out = failedRecord(abi.FromError(err))
			return err
		}
		out.metadata_count = C.size_t(n)
		out.metadata_keys = keys
		out.metadata_values = values
	}
	return nil
}

// errorMessage points at the NUL-terminated message the decoder stored in
// the context, or at a static message when there was no context or no room.
func errorMessage(ac *arena.Context, r *sensor.Reading) *C.char {
	if !r.Failed() {
		return nil
	}
	if ac != nil && !ac.Destroyed() && len(r.ErrMessage) > 0 {
		return (*C.char)(unsafe.Pointer(unsafe.SliceData(r.ErrMessage)))
	}
	return staticMessage(r.ErrCode)
}

func failedRecord(st abi.Status) C.VSensorReading {
	return C.VSensorReading{error_code: C.int32_t(st), error_message: staticMessage(st)}
}

// withCReading hands fn a C copy of r that lives until fn returns.
func withCReading(r *sensor.Reading, fn func(*C.VSensorReading)) error {
	size := int(C.sizeof_VSensorReading) + 2*r.MetadataCount()*int(C.sizeof_VBytes) + 2*ptrAlign
	ac, err := arena.New(arena.Options{ChunkSize: size, Backing: mallocBacking{}})
	if err != nil {
		return err
	}
	defer ac.Destroy()
	out, err := allocReadings(ac, 1)
	if err != nil {
		return err
	}
	if err := flatten(ac, r, &out[0]); err != nil {
		return err
	}
	fn(&out[0])
	return nil
}
