// Package normalize converts the heterogeneous numeric encodings found in
// image metadata (rationals, "a/b" strings, pairs, plain numbers) into floats.
//
// Nothing in this package returns an error or panics: a value that cannot be
// interpreted is reported as absent.
package normalize
