// Package stream turns the model's chunked text response into subtitle blocks.
//
// Chunks arrive with arbitrary boundaries. The parser keeps one buffer,
// dispatches every complete line as soon as its newline arrives, and processes
// whatever remains once the stream ends. Lines that are not a single JSON
// object carrying id, startTime, endTime and text are dropped with a warning
// and counted; they never fail the stream. Only a transport error from the
// chunk source aborts decoding.
package stream
