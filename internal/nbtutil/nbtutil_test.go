package nbtutil

import (
	"errors"
	"testing"

	"github.com/oriumgames/schemcore/schemerr"
)

func TestRequireStringMissing(t *testing.T) {
	_, err := RequireString(Compound{}, "Name", "/Root")
	var se *schemerr.Error
	if !errors.As(err, &se) || se.Kind != schemerr.KindTagMissing {
		t.Fatalf("got %v, want TagMissing", err)
	}
	if se.Path != "/Root/Name" {
		t.Fatalf("path = %q", se.Path)
	}
}

func TestRequireInt32Mismatch(t *testing.T) {
	_, err := RequireInt32(Compound{"Width": "oops"}, "Width", "/Root")
	var se *schemerr.Error
	if !errors.As(err, &se) || se.Kind != schemerr.KindTagTypeMismatch {
		t.Fatalf("got %v, want TagTypeMismatch", err)
	}
}

func TestOptionalDefaults(t *testing.T) {
	v, err := OptionalInt32(Compound{}, "SubVersion", "/Root", -1)
	if err != nil || v != -1 {
		t.Fatalf("got (%d,%v), want (-1,nil)", v, err)
	}
}

func TestRequireCompoundOK(t *testing.T) {
	root := Compound{"Metadata": Compound{"Name": "x"}}
	m, err := RequireCompound(root, "Metadata", "/Root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["Name"] != "x" {
		t.Fatalf("got %v", m)
	}
}
