package prop

import "testing"

func alwaysFalse(string) bool { return false }

func enumSet(names ...string) IsEnumFunc {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(s string) bool { return set[s] }
}

func TestParsePrimitive(t *testing.T) {
	tn, err := ParseTypeName("Uint32", alwaysFalse)
	if err != nil {
		t.Fatalf("ParseTypeName: %v", err)
	}
	if tn.Kind != KindPrimitive || tn.Primitive != PrimUint32 {
		t.Errorf("got %+v, want primitive Uint32", tn)
	}
}

func TestParseFixedArray(t *testing.T) {
	tn, err := ParseTypeName("[4]Float", alwaysFalse)
	if err != nil {
		t.Fatalf("ParseTypeName: %v", err)
	}
	if tn.Kind != KindFixedArray || tn.FixedLen != 4 {
		t.Fatalf("got %+v, want fixed array of 4", tn)
	}
	if tn.Elem.Kind != KindPrimitive || tn.Elem.Primitive != PrimFloat {
		t.Errorf("elem = %+v, want primitive Float", tn.Elem)
	}
}

func TestParseDynArray(t *testing.T) {
	tn, err := ParseTypeName("array:CName", alwaysFalse)
	if err != nil {
		t.Fatalf("ParseTypeName: %v", err)
	}
	if tn.Kind != KindDynArray {
		t.Fatalf("got %+v, want dynamic array", tn)
	}
}

func TestParseHandleVariants(t *testing.T) {
	cases := []struct {
		s    string
		want HandleKind
	}{
		{"handle:gameObject", HandleStrong},
		{"rRef:gameObject", HandleRRef},
		{"raRef:gameObject", HandleRaRef},
	}
	for _, c := range cases {
		tn, err := ParseTypeName(c.s, alwaysFalse)
		if err != nil {
			t.Fatalf("ParseTypeName(%q): %v", c.s, err)
		}
		if tn.Kind != KindHandle || tn.HandleKind != c.want {
			t.Errorf("ParseTypeName(%q) = %+v, want handle kind %v", c.s, tn, c.want)
		}
		if tn.Elem.ClassOrEnumName != "gameObject" {
			t.Errorf("ParseTypeName(%q).Elem = %+v", c.s, tn.Elem)
		}
	}
}

func TestParseEnumVsObject(t *testing.T) {
	isEnum := enumSet("gamedataItemType")

	enumTN, err := ParseTypeName("gamedataItemType", isEnum)
	if err != nil {
		t.Fatalf("ParseTypeName(enum): %v", err)
	}
	if enumTN.Kind != KindEnum {
		t.Errorf("expected enum kind, got %+v", enumTN)
	}

	objTN, err := ParseTypeName("inventoryItemData", isEnum)
	if err != nil {
		t.Fatalf("ParseTypeName(object): %v", err)
	}
	if objTN.Kind != KindObject {
		t.Errorf("expected object kind, got %+v", objTN)
	}
}

func TestTypeNameStringRoundTrip(t *testing.T) {
	cases := []string{"Uint32", "[4]Float", "array:CName", "handle:gameObject", "rRef:gameObject"}
	for _, c := range cases {
		tn, err := ParseTypeName(c, alwaysFalse)
		if err != nil {
			t.Fatalf("ParseTypeName(%q): %v", c, err)
		}
		if got := tn.String(); got != c {
			t.Errorf("String() round trip of %q = %q", c, got)
		}
	}
}
