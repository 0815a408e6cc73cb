// Package postprocess invokes ffmpeg to combine downloaded files.
//
// Both operations treat the tool as an opaque subprocess: zero exit status is
// success, anything else is failure. Failures are reported to the caller for
// logging but are never fatal to the owning download job. Inputs are never
// deleted or modified; each operation writes a new sibling output file.
package postprocess
