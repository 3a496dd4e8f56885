package docstore

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"
)

var ErrBadPayload = errors.New("malformed payload")

// EncodePayload renders data as a base64 data URI.
func EncodePayload(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodePayload parses a base64 data URI produced by EncodePayload (or by a
// browser's readAsDataURL).
func DecodePayload(payload string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", nil, ErrBadPayload
	}
	header, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadPayload
	}
	header, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, ErrBadPayload
	}

	mediaType := "application/octet-stream"
	if header != "" {
		parsed, _, err := mime.ParseMediaType(header)
		if err != nil {
			return "", nil, ErrBadPayload
		}
		mediaType = parsed
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, ErrBadPayload
	}
	return mediaType, data, nil
}
