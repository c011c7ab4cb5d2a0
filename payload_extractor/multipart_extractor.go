package payload_extractor

import (
	"fmt"
	"io"
	"net/http"
)

// Two multipart layouts are supported. They differ in how the parts are
// addressed: either a single named part whose stream is read directly, or a
// sequence of parts per field name where only the first element is read.

type streamArgsExtractor struct {
	*http.Request
}

func NewMultipartStreamArgsExtractor(r *http.Request) ValueArgsExtractor {
	return &streamArgsExtractor{r}
}

func (r *streamArgsExtractor) Extract() (interface{}, interface{}, error) {
	if err := r.Request.ParseMultipartForm(MultipartMem()); err != nil {
		return nil, nil, err
	}

	value, valueHeader, err := r.Request.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	value.Close()

	part, _, err := r.Request.FormFile("args")
	if err != nil {
		return nil, nil, err
	}
	defer part.Close()

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, nil, err
	}

	return valueHeader, string(raw), nil
}

type indexedArgsExtractor struct {
	*http.Request
}

func NewMultipartIndexedArgsExtractor(r *http.Request) ValueArgsExtractor {
	return &indexedArgsExtractor{r}
}

func (r *indexedArgsExtractor) Extract() (interface{}, interface{}, error) {
	if err := r.Request.ParseMultipartForm(MultipartMem()); err != nil {
		return nil, nil, err
	}

	value, ok := r.Request.MultipartForm.File["file"]
	if !ok {
		return nil, nil, http.ErrMissingFile
	}

	argsParts := r.Request.MultipartForm.File["args"]
	if len(argsParts) == 0 {
		return nil, nil, fmt.Errorf("multipart field %q has no parts", "args")
	}

	part, err := argsParts[0].Open()
	if err != nil {
		return nil, nil, err
	}
	defer part.Close()

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, nil, err
	}

	return value, string(raw), nil
}
