// Package events defines the prediction events emitted on the event bus.
//
// Available event types:
//   - WaitPredicted: a wait estimate was served
//   - TrafficForecasted: an arrival forecast was served
//   - OutcomeRecorded: an observed wait was fed back to the wait predictor
//   - PredictionFailed: a request was rejected or the engine failed
package events
