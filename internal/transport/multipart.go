package transport

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/d-bias/dbias-go/internal/core"
)

// Multipart assembles the multipart/form-data body the analyze endpoint
// expects: one file part plus flat option fields. Fields are written in
// sorted key order so identical inputs produce identical bodies apart
// from the boundary.
func Multipart(fileField, fileName string, file io.Reader, fields map[string]string) (body []byte, header http.Header, err error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, nil, core.ErrValidation(core.CodeInvalidConfig, "creating file part: "+err.Error())
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, nil, core.ErrValidation(core.CodeMissingFile, "reading upload: "+err.Error()).WithCause(err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, nil, core.ErrValidation(core.CodeInvalidConfig, "writing field "+k+": "+err.Error())
		}
	}

	if err := writer.Close(); err != nil {
		return nil, nil, core.ErrValidation(core.CodeInvalidConfig, "finalizing body: "+err.Error())
	}

	header = http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())
	return buf.Bytes(), header, nil
}
