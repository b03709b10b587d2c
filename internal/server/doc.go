// Package server exposes the browser UI and JSON API for subtitle generation.
//
// Routes:
//
//	GET    /                  upload form and live preview
//	POST   /api/generate      multipart transcript + audio; starts a run
//	GET    /api/state         current snapshot
//	DELETE /api/state         cancel and clear
//	GET    /api/download      finalized SRT of the last successful run
//	GET    /api/ws            websocket feed of phase and block events
//	GET    /api/runs          history, newest first
//	GET    /api/runs/:id      one history row including its SRT
//	GET    /api/runs/:id/srt  download a past run
//	GET    /healthz           liveness
//	GET    /metrics           Prometheus exposition
//
// Starting a run while another is in flight cancels the earlier one.
package server
