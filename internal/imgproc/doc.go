// Package imgproc wraps the image decode and filter backends.
//
// The Prober, Decoder, and Processor interfaces are the seams between the
// pipeline and the underlying codec libraries. Full-image preparation uses
// libvips when available (decode-time shrinking keeps memory bounded) and
// falls back to a pure-Go path otherwise.
package imgproc
