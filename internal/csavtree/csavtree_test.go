package csavtree

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/orcaman/writerseeker"
)

func readAll(r io.Reader) ([]byte, error) { return io.ReadAll(r) }

func sampleVersion() Version {
	return Version{V1: 192, V2: 3, Suk: "1.63-patch1", Uk0: 7, Uk1: 0, V3: 4, HasV3: true}
}

// padPayload pads p so CompressFrame has something worth compressing; tiny
// inputs can round-trip to a larger LZ4 block than the source, which
// CompressFrame treats as "incompressible" and refuses.
func padPayload(p string) []byte {
	return []byte(strings.Repeat(p+" ", 64))
}

func bigSampleTree() *Node {
	root := NewNode("root", padPayload("root-payload"))
	inv := NewNode("inventory", padPayload("inv-payload"))
	inv.AddChild(NewNode("item_0", padPayload("sword")))
	inv.AddChild(NewNode("item_1", padPayload("shield")))
	root.AddChild(inv)
	root.AddChild(NewNode("quest_log", padPayload("quests")))
	return root
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tree := &Tree{Version: sampleVersion(), Root: bigSampleTree()}

	var buf writerseeker.WriterSeeker
	if err := Save(tree, &buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(buf.BytesReader())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(tree.Version, got.Version); diff != "" {
		t.Errorf("version mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tree.Root, got.Root); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWithProgressReportsFixedCheckpoints(t *testing.T) {
	tree := &Tree{Version: sampleVersion(), Root: bigSampleTree()}

	var buf writerseeker.WriterSeeker
	if err := Save(tree, &buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got []float64
	if _, err := LoadWithProgress(buf.BytesReader(), func(f float64) {
		got = append(got, f)
	}); err != nil {
		t.Fatalf("LoadWithProgress: %v", err)
	}
	if diff := cmp.Diff(loadCheckpoints, got); diff != "" {
		t.Errorf("checkpoint sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionValidateRejectsOutOfRangeAndBadCombination(t *testing.T) {
	for _, test := range []struct {
		desc string
		v    Version
		ok   bool
	}{
		{desc: "in range", v: Version{V1: 150, V2: 2}, ok: true},
		{desc: "v1 too low", v: Version{V1: 10, V2: 2}, ok: false},
		{desc: "v1 too high", v: Version{V1: 200, V2: 2}, ok: false},
		{desc: "v2 too high", v: Version{V1: 150, V2: 20}, ok: false},
		{desc: "v3 too high", v: Version{V1: 150, V2: 2, V3: 200, HasV3: true}, ok: false},
		{desc: "always-rejected combination", v: Version{V1: 160, V2: 4}, ok: false},
		{desc: "v2==4 but v1 above the cutoff is fine", v: Version{V1: 169, V2: 4}, ok: true},
	} {
		t.Run(test.desc, func(t *testing.T) {
			err := test.v.Validate()
			if (err == nil) != test.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, test.ok)
			}
		})
	}
}

func TestLoadRejectsBadFileMagic(t *testing.T) {
	var buf writerseeker.WriterSeeker
	buf.Write([]byte("NOPE"))
	if _, err := Load(buf.BytesReader()); err == nil {
		t.Fatalf("expected an error for a bad file magic")
	}
}

func TestLoadRejectsBadFooterMagic(t *testing.T) {
	tree := &Tree{Version: sampleVersion(), Root: bigSampleTree()}

	var buf writerseeker.WriterSeeker
	if err := Save(tree, &buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := readAll(buf.BytesReader())
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF // corrupt the 'DONE' footer magic

	var corrupt writerseeker.WriterSeeker
	corrupt.Write(raw)
	if _, err := Load(corrupt.BytesReader()); err == nil {
		t.Fatalf("expected an error for a corrupt footer magic")
	}
}
