package core

// Entry is a key together with its stored value.
type Entry struct {
	Key   Key
	Value []byte
}

// NewEntry copies the value so the entry may outlive the caller's buffer.
func NewEntry(k Key, value []byte) Entry {
	v := make([]byte, len(value))
	copy(v, value)
	return Entry{Key: k, Value: v}
}
