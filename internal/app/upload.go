package app

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"animalzone/site/internal/relay"
	"animalzone/site/internal/section"
)

const (
	multipartMemory   = 1 << 20
	multipartOverhead = 1 << 20
	formBodyLimit     = 64 << 10
)

// fileSelection adapts an uploaded multipart file to section.Selection.
type fileSelection struct {
	header *multipart.FileHeader
	form   *multipart.Form
}

func (f *fileSelection) Name() string {
	return f.header.Filename
}

func (f *fileSelection) ContentType() string {
	return f.header.Header.Get("Content-Type")
}

func (f *fileSelection) Open() (io.ReadCloser, error) {
	file, err := f.header.Open()
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Clear drops any temporary files the multipart parser spilled to disk.
func (f *fileSelection) Clear() {
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

// parseSelection reads the multipart "file" field. A request without a file
// yields a nil selection so the manager reports it.
func parseSelection(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (section.Selection, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %w", section.ErrTooLarge, err)
		}
		return nil, domainError(http.StatusBadRequest, "INVALID_UPLOAD", "Expected a multipart form with a file field", nil)
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil
	}
	return &fileSelection{header: files[0], form: r.MultipartForm}, nil
}

// decodeSubmission accepts a JSON body or a classic form post.
func decodeSubmission(w http.ResponseWriter, r *http.Request, kind relay.Kind) (relay.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, formBodyLimit)
	var submission relay.Submission
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(multipartMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return relay.Submission{Kind: kind}, domainError(http.StatusBadRequest, "INVALID_FORM", "Invalid form body", nil)
		}
		submission = relay.Submission{
			Name:    r.PostFormValue("name"),
			Email:   r.PostFormValue("email"),
			Message: r.PostFormValue("message"),
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	default:
		if err := decodeBody(r, &submission); err != nil {
			return relay.Submission{Kind: kind}, domainError(http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		}
	}
	submission.Kind = kind
	return submission, nil
}
