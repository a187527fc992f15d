// Package thumbs decodes grid thumbnails in ordered batches.
//
// Each batch is published to the shared collection before its decodes start,
// so placeholders render immediately. Decodes run under a fixed concurrency
// cap, and every result write is checked against the current load generation
// so a superseded folder load can never overwrite newer state.
package thumbs
