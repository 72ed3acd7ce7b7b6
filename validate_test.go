package quartofmt

import (
	"strings"
	"testing"
)

func TestValidateInputRejectsInvalidUTF8(t *testing.T) {
	data := []byte{0xff, 0xfe, 0xfd}
	if err := ValidateInput(data); err != ErrInvalidUTF8 {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestValidateInputRejectsBinary(t *testing.T) {
	data := append([]byte("hello"), 0x00)
	if err := ValidateInput(data); err != ErrBinaryInput {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}

func TestValidateInputAcceptsText(t *testing.T) {
	inputs := []string{
		"",
		"plain text\n",
		"tabs\tand\r\nCRLF are fine\n",
		"unicode: καλημέρα, 你好, emoji 🎉\n",
		strings.Repeat("long document line\n", 500),
	}
	for _, src := range inputs {
		if err := ValidateInput([]byte(src)); err != nil {
			t.Fatalf("rejected valid text %q: %v", src[:min(len(src), 40)], err)
		}
	}
}

func TestValidateInputControlByteRatio(t *testing.T) {
	// A rare escape byte in a large document is tolerated.
	ok := append([]byte(strings.Repeat("text ", 100)), 0x1b)
	if err := ValidateInput(ok); err != nil {
		t.Fatalf("single control byte rejected: %v", err)
	}
	// A short blob that is mostly control bytes is binary.
	bad := make([]byte, minBinarySample)
	for i := range bad {
		bad[i] = 0x01
	}
	if err := ValidateInput(bad); err != ErrBinaryInput {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}
