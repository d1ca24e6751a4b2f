package capability

import (
	"context"
	"testing"

	"github.com/mediakit/mediakit/media"
)

// --- test helpers ---

func passthrough(name string) Invoker {
	return Func(name, func(_ context.Context, req Request) (Response, error) {
		return Response{Output: req.Input}, nil
	})
}

func decodeDescriptor() Descriptor {
	return Descriptor{
		Name:       "decode",
		InputKinds: []media.Kind{media.KindVideo, media.KindImage},
		OutputKind: media.KindFrames,
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(decodeDescriptor(), passthrough("decode")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, ok := reg.Lookup("decode")
	if !ok {
		t.Fatal("expected decode to be registered")
	}
	if d.OutputKind != media.KindFrames {
		t.Fatalf("unexpected output kind: %s", d.OutputKind)
	}

	if _, ok := reg.Lookup("unknown"); ok {
		t.Fatal("unexpected hit for unknown capability")
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(decodeDescriptor(), passthrough("decode")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Register(decodeDescriptor(), passthrough("decode")); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistry_InvalidDescriptorRejected(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(Descriptor{Name: "", InputKinds: []media.Kind{media.KindImage}, OutputKind: media.KindRecord}, passthrough(""))
	if err == nil {
		t.Fatal("expected empty name to fail")
	}

	err = reg.Register(Descriptor{Name: "x", OutputKind: media.KindRecord}, passthrough("x"))
	if err == nil {
		t.Fatal("expected missing input kinds to fail")
	}

	err = reg.Register(Descriptor{Name: "x", InputKinds: []media.Kind{"hologram"}, OutputKind: media.KindRecord}, passthrough("x"))
	if err == nil {
		t.Fatal("expected unknown input kind to fail")
	}

	err = reg.Register(Descriptor{Name: "x", InputKinds: []media.Kind{media.KindImage}, OutputKind: media.KindRecord}, nil)
	if err == nil {
		t.Fatal("expected nil invoker to fail")
	}
}

func TestRegistry_IsCompatible(t *testing.T) {
	reg := NewRegistry()
	d := decodeDescriptor()

	if !reg.IsCompatible(d, media.KindVideo) {
		t.Fatal("video should be compatible with decode")
	}
	if reg.IsCompatible(d, media.KindAudio) {
		t.Fatal("audio should not be compatible with decode")
	}
	if !reg.IsCompatible(d, media.KindAny) {
		t.Fatal("any should be compatible with everything")
	}
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(Descriptor{Name: "embed", InputKinds: []media.Kind{media.KindFrames}, OutputKind: media.KindEmbedding}, passthrough("embed"))
	_ = reg.Register(decodeDescriptor(), passthrough("decode"))

	names := reg.List()
	if len(names) != 2 || names[0] != "decode" || names[1] != "embed" {
		t.Fatalf("expected sorted [decode embed], got %v", names)
	}
}

func TestRegistry_Fused(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(decodeDescriptor(), passthrough("decode"))
	_ = reg.Register(Descriptor{Name: "detect", InputKinds: []media.Kind{media.KindFrames}, OutputKind: media.KindRecord}, passthrough("detect"))

	if _, ok := reg.FusedImplFor("decode", "detect"); ok {
		t.Fatal("no fused impl registered yet")
	}

	if err := reg.RegisterFused("decode", "detect", passthrough("decode+detect")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.FusedImplFor("decode", "detect"); !ok {
		t.Fatal("expected fused impl lookup to succeed")
	}
	if _, ok := reg.FusedImplFor("detect", "decode"); ok {
		t.Fatal("fused impl is directional")
	}

	if err := reg.RegisterFused("decode", "warp", passthrough("x")); err == nil {
		t.Fatal("expected unknown member to fail")
	}
	if err := reg.RegisterFused("decode", "detect", passthrough("x")); err == nil {
		t.Fatal("expected duplicate fused registration to fail")
	}
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(decodeDescriptor(), passthrough("decode"))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if _, ok := reg.Lookup("decode"); !ok {
					t.Error("lookup failed under concurrency")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
