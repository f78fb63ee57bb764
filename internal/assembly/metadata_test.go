package assembly

import "testing"

func TestDecodeCompressedUint(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
		size int
		ok   bool
	}{
		{in: []byte{0x03}, want: 3, size: 1, ok: true},
		{in: []byte{0x7F}, want: 0x7F, size: 1, ok: true},
		{in: []byte{0x80, 0x80}, want: 0x80, size: 2, ok: true},
		{in: []byte{0xBF, 0xFF}, want: 0x3FFF, size: 2, ok: true},
		{in: []byte{0xC0, 0x00, 0x40, 0x00}, want: 0x4000, size: 4, ok: true},
		{in: []byte{0x80}, ok: false},
		{in: nil, ok: false},
	}
	for _, tt := range tests {
		got, size, ok := decodeCompressedUint(tt.in)
		if ok != tt.ok || (ok && (got != tt.want || size != tt.size)) {
			t.Errorf("decodeCompressedUint(% x) = %#x, %d, %v", tt.in, got, size, ok)
		}
	}
}

func TestFirstStringArgument(t *testing.T) {
	if got := firstStringArgument([]byte{0x01, 0x00, 0x03, 'a', 'b', 'c', 0x00, 0x00}); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := firstStringArgument([]byte{0x01, 0x00, 0xFF, 0x00, 0x00}); got != "" {
		t.Errorf("null string = %q", got)
	}
	if got := firstStringArgument([]byte{0x02, 0x00, 0x01, 'a'}); got != "" {
		t.Errorf("bad prolog = %q", got)
	}
	if got := firstStringArgument([]byte{0x01, 0x00, 0x09, 'a'}); got != "" {
		t.Errorf("truncated = %q", got)
	}
}
