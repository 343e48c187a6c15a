// Package forecast provides a small numeric toolkit for arrival series:
// least-squares autoregressive fitting with differencing, seasonal
// decomposition, smoothing and forecast accuracy metrics.
//
// It carries no domain knowledge; inputs and outputs are plain float slices.
package forecast
