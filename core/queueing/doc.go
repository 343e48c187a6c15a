// Package queueing implements closed-form results for Markovian queues:
// M/M/1 and M/M/c (Erlang C) expected waits, the wait of a given queue
// position, server sizing and rate estimation from samples.
//
// Rates are expressed per hour and every returned time is in minutes.
package queueing
