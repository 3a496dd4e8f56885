package docstore

import (
	"bytes"
	"errors"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	data := []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	payload := EncodePayload("application/pdf", data)
	if payload[:28] != "data:application/pdf;base64," {
		t.Fatalf("unexpected prefix in %q", payload)
	}

	mediaType, decoded, err := DecodePayload(payload)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if mediaType != "application/pdf" {
		t.Errorf("mediaType = %q", mediaType)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded bytes differ")
	}
}

func TestDecodePayloadEmptyMediaType(t *testing.T) {
	mediaType, data, err := DecodePayload("data:;base64,aGk=")
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if mediaType != "application/octet-stream" || string(data) != "hi" {
		t.Fatalf("got %q %q", mediaType, data)
	}
}

func TestDecodePayloadRejectsMalformed(t *testing.T) {
	for _, payload := range []string{
		"",
		"http://example.com/a.pdf",
		"data:application/pdf;base64",
		"data:application/pdf,plain",
		"data:application/pdf;base64,!!!",
		"data:;;;base64,aGk=",
	} {
		if _, _, err := DecodePayload(payload); !errors.Is(err, ErrBadPayload) {
			t.Errorf("DecodePayload(%q) err = %v, want ErrBadPayload", payload, err)
		}
	}
}
