// Package gemini streams subtitle generation requests to the Gemini REST API.
//
// A request carries the fixed instruction prompt, the transcript text, and the
// audio recording as inline base64 data. The response is consumed as
// server-sent events and surfaced as an iterator of text chunks; chunk
// boundaries carry no meaning. Requests are attempted exactly once.
package gemini
