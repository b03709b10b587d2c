package encoder

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// File describes a user-selected input: a display name, the content type the
// source declared for it (may be empty), and a way to read its bytes.
type File struct {
	Name         string
	DeclaredType string
	Open         func() (io.ReadCloser, error)
}

var errNoReader = errors.New("file has no reader")

// PathFile describes a file on disk. The declared type is left empty; callers
// rely on sniffing and the extension instead.
func PathFile(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// BytesFile describes an in-memory file.
func BytesFile(name, declaredType string, data []byte) File {
	return File{
		Name:         name,
		DeclaredType: declaredType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// MultipartFile describes an uploaded form file.
func MultipartFile(header *multipart.FileHeader) File {
	if header == nil {
		return File{}
	}
	return File{
		Name:         filepath.Base(header.Filename),
		DeclaredType: header.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func (f File) readAll() ([]byte, error) {
	if f.Open == nil {
		return nil, errNoReader
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
