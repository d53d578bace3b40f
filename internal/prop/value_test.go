package prop

import "testing"

// TestSkippabilityInvariant covers spec §8 property 11: a freshly
// constructed property that has never been edited is omitted on write;
// after one edit it is always present; after a read-in it is always
// present.
func TestSkippabilityInvariant(t *testing.T) {
	boolType := &TypeName{Kind: KindPrimitive, Primitive: PrimBool}

	fresh := NewValue(boolType)
	if !fresh.Skippable(true) {
		t.Errorf("fresh unedited default-valued property should be skippable")
	}

	edited := NewValue(boolType)
	edited.MarkEdited()
	if edited.Skippable(true) {
		t.Errorf("edited property should never be skippable, even holding the default value")
	}

	readIn := NewValue(boolType)
	readIn.MarkReadIn()
	if readIn.Skippable(true) {
		t.Errorf("read-in property should never be skippable")
	}
}

func TestSkippableRequiresDefaultValue(t *testing.T) {
	boolType := &TypeName{Kind: KindPrimitive, Primitive: PrimBool}
	fresh := NewValue(boolType)
	if fresh.Skippable(false) {
		t.Errorf("fresh property holding a non-default value should not be skippable")
	}
}

func TestUnknownValueAlwaysRoundTrips(t *testing.T) {
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	v := NewUnknownValue(raw)
	if v.Skippable(true) {
		t.Errorf("unknown-typed property must never be skippable")
	}
	if string(v.Unknown) != string(raw) {
		t.Errorf("Unknown bytes = %v, want %v", v.Unknown, raw)
	}
}

func TestCRUIDAndNodeRefEqual(t *testing.T) {
	a := CRUID{1, 2, 3, 4, 5, 6, 7, 8}
	b := a
	if !a.Equal(b) {
		t.Errorf("identical CRUIDs should compare equal")
	}
	b[0] = 0
	if a.Equal(b) {
		t.Errorf("differing CRUIDs should not compare equal")
	}

	n1 := NodeRef("scene/root/node")
	n2 := NodeRef("scene/root/node")
	if !n1.Equal(n2) {
		t.Errorf("identical NodeRefs should compare equal")
	}
}
