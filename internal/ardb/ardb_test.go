package ardb

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildARDB(names []string, dirNamesCount uint32, records []Record) []byte {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(names)))
	binary.Write(&buf, binary.LittleEndian, dirNamesCount)
	binary.Write(&buf, binary.LittleEndian, uint32(len(records)))
	for _, n := range names {
		binary.Write(&buf, binary.LittleEndian, uint32(len(n)))
		buf.WriteString(n)
	}
	for _, r := range records {
		binary.Write(&buf, binary.LittleEndian, r.NameIndex)
		binary.Write(&buf, binary.LittleEndian, r.ParentIndex)
	}
	return buf.Bytes()
}

func TestParseValidDB(t *testing.T) {
	// dir names: "base", "sub"; file name: "x.txt"
	names := []string{"base", "sub", "x.txt"}
	records := []Record{
		{NameIndex: 0, ParentIndex: -1}, // base/ (root)
		{NameIndex: 1, ParentIndex: 0},  // base/sub/
		{NameIndex: 2, ParentIndex: 1},  // base/sub/x.txt
	}
	blob := buildARDB(names, 2, records)

	db, err := Parse(blob)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !db.IsDirName(0) || !db.IsDirName(1) {
		t.Errorf("expected indices 0,1 to be directory names")
	}
	if db.IsDirName(2) {
		t.Errorf("expected index 2 to be a file name")
	}
	if len(db.Records) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(db.Records))
	}
	if !db.Records[0].IsRoot() {
		t.Errorf("record 0 should be root")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	blob := buildARDB(nil, 0, nil)
	blob[0] = 'X'
	if _, err := Parse(blob); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParseRejectsNonTopologicalOrder(t *testing.T) {
	names := []string{"a", "b"}
	records := []Record{
		{NameIndex: 0, ParentIndex: 1}, // parent index 1 >= self index 0
		{NameIndex: 1, ParentIndex: -1},
	}
	blob := buildARDB(names, 2, records)
	if _, err := Parse(blob); err == nil {
		t.Fatalf("expected error for non-topological record order")
	}
}

func TestParseRejectsOutOfRangeNameIndex(t *testing.T) {
	names := []string{"a"}
	records := []Record{{NameIndex: 5, ParentIndex: -1}}
	blob := buildARDB(names, 1, records)
	if _, err := Parse(blob); err == nil {
		t.Fatalf("expected error for out-of-range name_idx")
	}
}
