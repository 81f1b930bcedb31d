package testutil

import (
	"testing"

	"github.com/INLOpen/docseek/core"
)

// EventKey builds row / dt\0uid / field\0value.
func EventKey(row, datatype, uid, field, value string) core.Key {
	return core.NewKey(row, datatype+"\x00"+uid, field+"\x00"+value)
}

// DocumentKey builds an event key with an empty qualifier.
func DocumentKey(row, datatype, uid string) core.Key {
	return core.NewKey(row, datatype+"\x00"+uid, "")
}

// FieldIndexKey builds row / fi\0field / value\0dt\0uid.
func FieldIndexKey(row, field, value, datatype, uid string) core.Key {
	return core.NewKey(row, "fi\x00"+field, value+"\x00"+datatype+"\x00"+uid)
}

// TermFrequencyKey builds row / tf / dt\0uid\0value\0field.
func TermFrequencyKey(row, datatype, uid, value, field string) core.Key {
	return core.NewKey(row, "tf", datatype+"\x00"+uid+"\x00"+value+"\x00"+field)
}

// RequireKeyEqual fails the test unless both keys compare equal.
func RequireKeyEqual(t testing.TB, want, got core.Key) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("keys differ:\nwant: %s\ngot:  %s", want, got)
	}
}

// RequireRangeEqual fails the test unless both ranges have the same bounds.
func RequireRangeEqual(t testing.TB, want core.Range, got *core.Range) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected range %s, got nil", want)
	}
	if !want.Equal(*got) {
		t.Fatalf("ranges differ:\nwant: %s\ngot:  %s", want, *got)
	}
}
