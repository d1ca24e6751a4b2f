package media

// Kind tags the media type carried by a payload or accepted by a capability.
type Kind string

const (
	// KindVideo is an encoded video stream or container.
	KindVideo Kind = "video"
	// KindAudio is an encoded or raw audio stream.
	KindAudio Kind = "audio"
	// KindImage is a single encoded or decoded image.
	KindImage Kind = "image"
	// KindFrames is a sequence of decoded frames.
	KindFrames Kind = "frames"
	// KindEmbedding is a numeric feature vector produced by inference.
	KindEmbedding Kind = "embedding"
	// KindRecord is a structured key-value result (detections, metadata).
	KindRecord Kind = "record"
	// KindAny matches every kind; used by pass-through capabilities.
	KindAny Kind = "any"
)

// Matches reports whether a payload of kind k satisfies the accepted kind a.
// KindAny on either side matches everything.
func (k Kind) Matches(a Kind) bool {
	return k == a || k == KindAny || a == KindAny
}

// Valid reports whether k is one of the known kind tags.
func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindImage, KindFrames, KindEmbedding, KindRecord, KindAny:
		return true
	}
	return false
}
