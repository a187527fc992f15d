// Package records defines the in-memory representation of one image file and
// the supported extension whitelist shared by the enumerator and pipeline.
package records
