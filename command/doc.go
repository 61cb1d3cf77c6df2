// Package command records GPU side effects into a replayable byte stream.
//
// A Buffer is a fixed-capacity bump allocator. Every command is a 16-byte
// Header followed by a little-endian payload and an optional footer, padded
// to Alignment:
//
//	+--------+----------------------+-------------+-----+
//	| Header | fixed payload struct | footer      | pad |
//	+--------+----------------------+-------------+-----+
//	 16 bytes  binary.Size(cmd)       variable
//
// Headers carry the command Type and an index into a side table of Tags,
// so each command keeps a description and the file:line that issued it.
// Cross references inside payloads are resource.ID handles; the consumer
// resolves them against the owning context.
//
// # Recording
//
//	buf := command.New(command.HeapAllocator{}, 1<<20)
//	ok := buf.RecordResource(command.TypeResourceConstruct, command.Here("init mesh"),
//		command.ResourceCommand{Kind: resource.KindBuffer, ID: id})
//
// When a record helper returns false the Buffer is full; the caller submits
// and resets it.
//
// # Replay
//
//	r := command.NewReader(buf)
//	for rec, ok := r.Next(); ok; rec, ok = r.Next() {
//		switch rec.Header.Type {
//		case command.TypeDraw:
//			draw, uniforms, err := rec.Draw()
//			...
//		}
//	}
//
// Reset rewinds the Buffer without touching memory; every slice previously
// returned by the Buffer becomes invalid.
package command
