package stream

import (
	"context"
	"iter"

	"subgen/internal/services"
	"subgen/internal/subtitles"
)

// Decode drains chunks through a Parser, calling onBlock for every valid
// record. Each chunk is fully processed before the next is requested. A
// transport error from the sequence, or cancellation of ctx, stops decoding
// and returns an ErrTransport-marked error; blocks already delivered stay
// delivered and the unterminated remainder is discarded.
func Decode(ctx context.Context, chunks iter.Seq2[string, error], onBlock func(subtitles.Block), opts ...Option) (Stats, error) {
	parser := NewParser(onBlock, opts...)
	for chunk, err := range chunks {
		if err != nil {
			return parser.Stats(), services.Wrap(services.ErrTransport, "stream", "read chunk", "model stream interrupted", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return parser.Stats(), services.Wrap(services.ErrTransport, "stream", "read chunk", "run cancelled", ctxErr)
		}
		parser.Write(chunk)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return parser.Stats(), services.Wrap(services.ErrTransport, "stream", "finish", "run cancelled", ctxErr)
	}
	parser.Flush()
	return parser.Stats(), nil
}
