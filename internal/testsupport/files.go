package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WAVBytes returns a minimal PCM WAV container holding the requested number
// of silent samples (mono, 16-bit, 8 kHz).
func WAVBytes(samples int) []byte {
	if samples < 0 {
		samples = 0
	}
	dataSize := uint32(samples * 2)
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataSize)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], 8000)
	binary.LittleEndian.PutUint32(buf[28:32], 16000)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)
	return buf
}

// WriteInputs writes a transcript and a short WAV recording into dir and
// returns their paths.
func WriteInputs(t testing.TB, dir, transcript string) (string, string) {
	t.Helper()
	transcriptPath := WriteFile(t, filepath.Join(dir, "transcript.txt"), []byte(transcript))
	audioPath := WriteFile(t, filepath.Join(dir, "interview.wav"), WAVBytes(800))
	return transcriptPath, audioPath
}
