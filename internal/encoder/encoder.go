package encoder

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"subgen/internal/services"
)

const genericMIMEType = "application/octet-stream"

// AudioPayload is the transmission form of an audio file.
type AudioPayload struct {
	MIMEType string
	Data     string
	Size     int
}

// ReadText reads the full file as UTF-8 text. A leading byte order mark is
// honoured (UTF-16 transcripts are transcoded) and the result is NFC
// normalized.
func ReadText(file File) (string, error) {
	raw, err := file.readAll()
	if err != nil {
		return "", services.Wrap(services.ErrIO, "encoder", "read text", file.Name, err)
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), decoder))
	if err != nil {
		return "", services.Wrap(services.ErrIO, "encoder", "decode text", file.Name, err)
	}
	return norm.NFC.String(string(decoded)), nil
}

// ReadAsBase64 reads the raw bytes and base64-encodes them. The MIME type comes
// from the container itself when it can be sniffed, then the declared type,
// then the file extension.
func ReadAsBase64(file File) (AudioPayload, error) {
	raw, err := file.readAll()
	if err != nil {
		return AudioPayload{}, services.Wrap(services.ErrIO, "encoder", "read audio", file.Name, err)
	}
	return AudioPayload{
		MIMEType: resolveMIMEType(raw, file.DeclaredType, file.Name),
		Data:     base64.StdEncoding.EncodeToString(raw),
		Size:     len(raw),
	}, nil
}

func resolveMIMEType(data []byte, declared, name string) string {
	if len(data) > 0 {
		if sniffed := baseMediaType(mimetype.Detect(data).String()); isSpecific(sniffed) {
			return sniffed
		}
	}
	if d := baseMediaType(declared); isSpecific(d) {
		return d
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if known, ok := audioExtensions[ext]; ok {
			return known
		}
		if byExt := baseMediaType(mime.TypeByExtension(ext)); isSpecific(byExt) {
			return byExt
		}
	}
	return genericMIMEType
}

var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".aac":  "audio/aac",
	".aiff": "audio/aiff",
	".webm": "audio/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

func isSpecific(mediaType string) bool {
	switch mediaType {
	case "", genericMIMEType, "text/plain":
		return false
	}
	return true
}

func baseMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(value)
	}
	return mediaType
}
