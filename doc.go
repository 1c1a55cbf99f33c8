// Package bebopffi is the engine behind the bebop sensor-reading ABI.
//
// An Engine decodes and encodes SensorReading messages in the tagged
// little-endian wire format, allocating decoded payloads from per-caller
// arena contexts, and notifies the host through a callback.Registry.
//
// Components:
//   - arena.Context: bulk-lifetime storage for decoded records. One per
//     thread or connection; not safe for concurrent use.
//   - sensor / batch: the record and batch codecs.
//   - callback.Registry: data, result, progress, event, error and reading
//     slots, invoked synchronously.
//   - journal (optional): last-known reading per sensor in a Provider,
//     guarded by per-sensor generations.
//
// Every exported operation reports an abi.Status. Failure details are kept
// on the context and read back with LastError:
//
//	ac, _ := eng.NewContext()
//	defer eng.DestroyContext(ac)
//	var r sensor.Reading
//	if st := eng.DecodeReading(ac, msg, &r); st != abi.StatusOK {
//	    log.Printf("%s: %s", st, eng.LastError(ac))
//	}
package bebopffi
