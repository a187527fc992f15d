// Package workers computes worker pool sizes from available CPU.
//
// GOMAXPROCS reflects container CPU limits (Go 1.19+), so sizing off it keeps
// decode pools from overcommitting constrained environments.
package workers
