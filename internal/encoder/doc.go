// Package encoder turns user-selected input files into the representation the
// model request needs: transcript text decoded as UTF-8, and audio as a MIME
// type plus a base64 payload.
//
// Inputs are described by File so the CLI (paths on disk) and the HTTP server
// (multipart uploads) share the same code path. Every read failure is tagged
// with services.ErrIO.
package encoder
