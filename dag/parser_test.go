package dag

import "testing"

func TestParseSpec_Sequential(t *testing.T) {
	segs, err := parseSpec("decode;detect;export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for _, seg := range segs {
		if seg.group || len(seg.elements) != 1 {
			t.Fatalf("expected plain segments, got %+v", seg)
		}
	}
	if segs[0].elements[0].chain[0].name != "decode" {
		t.Fatalf("unexpected first stage: %+v", segs[0])
	}
}

func TestParseSpec_Group(t *testing.T) {
	segs, err := parseSpec("decode;[detect,embed,classify]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if !segs[1].group || len(segs[1].elements) != 3 {
		t.Fatalf("expected group of 3, got %+v", segs[1])
	}
}

func TestParseSpec_Fusion(t *testing.T) {
	segs, err := parseSpec("decode+detect")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain := segs[0].elements[0].chain
	if len(chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(chain))
	}
	if !chain[0].fuseNext {
		t.Fatal("first chain member should carry the fusion hint")
	}
	if chain[1].fuseNext {
		t.Fatal("last chain member should not carry a fusion hint")
	}
}

func TestParseSpec_Options(t *testing.T) {
	segs, err := parseSpec("detect:model=yolo:threshold=0.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := segs[0].elements[0].chain[0].options
	if opts["model"] != "yolo" || opts["threshold"] != "0.7" {
		t.Fatalf("unexpected options: %v", opts)
	}
}

func TestParseSpec_OptionValueWithColons(t *testing.T) {
	segs, err := parseSpec("detect:model=s3://bucket/x:threshold=0.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := segs[0].elements[0].chain[0].options
	if opts["model"] != "s3://bucket/x" {
		t.Fatalf("colon-bearing value mangled: %q", opts["model"])
	}
	if opts["threshold"] != "0.7" {
		t.Fatalf("option after colon-bearing value lost: %v", opts)
	}

	segs, err = parseSpec("report:dest=http://host:8080/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts = segs[0].elements[0].chain[0].options
	if opts["dest"] != "http://host:8080/path" {
		t.Fatalf("trailing colon segments lost: %q", opts["dest"])
	}
}

func TestParseSpec_OptionsInsideGroup(t *testing.T) {
	segs, err := parseSpec("[detect:model=yolo,embed]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segs[0].elements[0].chain[0].options["model"] != "yolo" {
		t.Fatalf("group member options lost: %+v", segs[0])
	}
}

func TestParseSpec_Whitespace(t *testing.T) {
	segs, err := parseSpec("  decode ; [ detect , embed ] ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 || !segs[1].group {
		t.Fatalf("whitespace should be tolerated: %+v", segs)
	}
}

func TestParseSpec_Malformed(t *testing.T) {
	cases := []string{
		"",
		";",
		"decode;;detect",
		"[detect]",
		"[detect,embed",
		"decode;[a,[b,c]]",
		"decode,detect",
		"detect:model",
		"detect:=yolo",
		"detect:model=a:model=b",
		"de code",
		"+detect",
	}
	for _, spec := range cases {
		if _, err := parseSpec(spec); err == nil {
			t.Errorf("expected parse error for %q", spec)
		}
	}
}
