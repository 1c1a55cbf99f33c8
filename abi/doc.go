// Package abi holds the frozen constants of the bebop C boundary: the packed
// ABI version, the status code set, sensor type ordinals and event types.
//
// Values in this package are part of the wire contract with foreign callers.
// Codes and ordinals may be appended; existing values never change.
package abi
