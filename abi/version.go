package abi

import "fmt"

const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// Version is the packed ABI version: (major<<16)|(minor<<8)|patch.
const Version uint32 = VersionMajor<<16 | VersionMinor<<8 | VersionPatch

const VersionString = "1.0.0"

// Pack combines version components the same way Version does.
func Pack(major, minor, patch uint8) uint32 {
	return uint32(major)<<16 | uint32(minor)<<8 | uint32(patch)
}

// Unpack splits a packed version.
func Unpack(v uint32) (major, minor, patch uint8) {
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// Compatible reports whether a caller built against v can use this library.
// Only a major bump breaks compatibility.
func Compatible(v uint32) bool {
	major, _, _ := Unpack(v)
	return major == VersionMajor
}

// FormatVersion renders a packed version as "major.minor.patch".
func FormatVersion(v uint32) string {
	major, minor, patch := Unpack(v)
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
