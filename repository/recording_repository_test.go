package repository

import (
	"database/sql"
	"testing"
)

func TestMarshalListRoundTrip(t *testing.T) {
	encoded, err := marshalList([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("marshalList: %v", err)
	}

	decoded, err := unmarshalList(sql.NullString{String: encoded, Valid: true})
	if err != nil {
		t.Fatalf("unmarshalList: %v", err)
	}
	if len(decoded) != 3 || decoded[0] != "a" || decoded[2] != "c" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestMarshalListNil(t *testing.T) {
	// A nil slice encodes as an empty JSON array, not null; the column
	// stays queryable with JSON functions.
	encoded, err := marshalList(nil)
	if err != nil {
		t.Fatalf("marshalList: %v", err)
	}
	if encoded != "[]" {
		t.Errorf("encoded = %q, want []", encoded)
	}
}

func TestUnmarshalListEmpty(t *testing.T) {
	for _, value := range []sql.NullString{
		{},
		{String: "", Valid: true},
	} {
		decoded, err := unmarshalList(value)
		if err != nil {
			t.Fatalf("unmarshalList(%+v): %v", value, err)
		}
		if decoded != nil {
			t.Errorf("unmarshalList(%+v) = %v, want nil", value, decoded)
		}
	}
}
