package encoder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "out.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Write([]byte("xxxxbody")); err != nil {
		t.Fatal(err)
	}
	if err := sink.Flush(); err != nil {
		t.Fatal(err)
	}
	if size, err := sink.Size(); err != nil || size != 8 {
		t.Fatalf("size = %v (%v)", size, err)
	}
	// patch the header in place, the wav/avi trailer pattern
	if err := sink.WriteAtStart([]byte("head")); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "headbody" {
		t.Errorf("file content: %q", data)
	}
}
