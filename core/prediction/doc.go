// Package prediction answers two questions about a service queue: how long
// the entity at a given position will wait, and how arrival volume evolves
// over the coming intervals.
//
// Predictors keep a small bounded history that decides whether they run in
// cold-start or warmed mode. They perform no I/O and no locking; callers
// sharing a predictor between goroutines must serialize access.
package prediction
