package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("stream interrupted")
}

func TestWriteStreamAtomicWritesFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "video.mp4")

	n, err := WriteStreamAtomic(dst, strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("WriteStreamAtomic failed: %v", err)
	}
	if n != int64(len("payload")) {
		t.Fatalf("wrote %d bytes", n)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content: %q", data)
	}
	if Exists(TempPath(dst)) {
		t.Fatal("temp file should be gone after rename")
	}
}

func TestWriteStreamAtomicLeavesNoPartialFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "video.mp4")

	_, err := WriteStreamAtomic(dst, &failingReader{data: "half"})
	if err == nil {
		t.Fatal("expected stream error")
	}
	if Exists(dst) {
		t.Fatal("final path must not exist after interrupted stream")
	}
	if Exists(TempPath(dst)) {
		t.Fatal("temp file must be cleaned up after interrupted stream")
	}
}

func TestWriteStreamAtomicPreservesPreviousFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(dst, []byte("complete"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteStreamAtomic(dst, &failingReader{data: "half"}); err == nil {
		t.Fatal("expected stream error")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "complete" {
		t.Fatalf("previous file was clobbered: %q", data)
	}
}

func TestWriteStreamAtomicRemovesStaleTemp(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(TempPath(dst), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteStreamAtomic(dst, strings.NewReader("fresh")); err != nil {
		t.Fatalf("WriteStreamAtomic failed: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "fresh" {
		t.Fatalf("unexpected content: %q", data)
	}
}
