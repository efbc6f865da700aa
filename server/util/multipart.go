package util

import (
	"mime/multipart"
	"net/http"
)

type MultipartFile struct {
	Field  string
	File   multipart.File
	Header *multipart.FileHeader
}

type ParsedMultipart struct {
	Values map[string]string
	Files  []MultipartFile
}

func (pm *ParsedMultipart) CloseFiles() {
	for _, mf := range pm.Files {
		if mf.File != nil {
			mf.File.Close()
		}
	}
}

func (pm *ParsedMultipart) Value(key string) string {
	return pm.Values[key]
}

// ParseMultipart parses a multipart form, applying maxPayload to the
// whole request body. Files are opened and returned in form order;
// callers own closing them, typically via CloseFiles. Size and type
// validation is left to the caller so a violation can be reported
// instead of silently skipped.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxPayload, maxMemory int64) (*ParsedMultipart, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayload)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}

	pm := &ParsedMultipart{Values: map[string]string{}}

	for key, arr := range r.MultipartForm.Value {
		if len(arr) > 0 {
			pm.Values[key] = arr[0]
		}
	}

	for key, fhs := range r.MultipartForm.File {
		for _, fh := range fhs {
			f, err := fh.Open()
			if err != nil {
				pm.CloseFiles()
				return nil, err
			}
			pm.Files = append(pm.Files, MultipartFile{Field: key, File: f, Header: fh})
		}
	}

	return pm, nil
}
