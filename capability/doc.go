// Package capability defines the contract between the pipeline engine and
// the processing capabilities it orchestrates (decoders, model inference,
// feature extraction).
//
// Each capability registers a Descriptor and an Invoker at startup:
//
//	reg := capability.NewRegistry()
//	reg.Register(capability.Descriptor{
//	    Name:       "decode",
//	    InputKinds: []media.Kind{media.KindVideo, media.KindImage},
//	    OutputKind: media.KindFrames,
//	}, decoder)
//
// The engine never inspects a capability's internals; it routes payloads
// through the Invoker interface and validates stage wiring against the
// registered descriptors.
package capability
