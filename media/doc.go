// Package media defines the payload types that flow along pipeline edges.
//
// A Payload is a tagged variant over in-memory bytes, a file reference, a
// structured record, or a collection of payloads, so that capabilities
// needing zero-copy buffer access and capabilities needing file handles
// share one interface:
//
//	in := media.Bytes(frame, media.KindImage)
//	ref := media.FileRef("/data/clip.mp4", media.KindVideo)
//
// Every payload can produce a stable content identity via ContentID, which
// the cache uses for fingerprinting.
package media
