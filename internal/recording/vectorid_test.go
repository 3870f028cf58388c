package recording

import "testing"

func TestVectorDocumentID_RoundTrip(t *testing.T) {
	id := VectorDocumentID(42, 7)
	if id != "summary-42-7" {
		t.Fatalf("VectorDocumentID = %q, want summary-42-7", id)
	}

	rid, minute, ok := ParseVectorDocumentID(id)
	if !ok {
		t.Fatal("ParseVectorDocumentID: ok = false")
	}
	if rid != 42 || minute != 7 {
		t.Fatalf("parsed (%d, %d), want (42, 7)", rid, minute)
	}
}

func TestParseVectorDocumentID_RejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"summary",
		"summary-42",
		"summary-42-7-9",
		"chunk-42-7",
		"summary-x-7",
		"summary-42-y",
	}
	for _, in := range cases {
		if _, _, ok := ParseVectorDocumentID(in); ok {
			t.Errorf("ParseVectorDocumentID(%q): ok = true, want false", in)
		}
	}
}
