// Package browser owns the shared browsing state: the ordered record
// collection and the current selection.
//
// Both the grid and the single-image viewer read the same collection; all
// mutation goes through the Browser's operations, and observers receive
// typed events over subscribed channels rather than a string-keyed bus.
package browser
