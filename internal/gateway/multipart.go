package gateway

import (
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
)

// File is a named upload.
type File struct {
	Name   string
	Reader io.Reader
}

type formField struct {
	name  string
	value string
	file  *File
}

// multipartBody streams fields through a pipe so large audio files are not
// buffered in memory. The returned content type carries the boundary.
func multipartBody(fields []formField) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeFields(mw, fields)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeFields(mw *multipart.Writer, fields []formField) error {
	for _, f := range fields {
		if f.file == nil {
			if err := mw.WriteField(f.name, f.value); err != nil {
				return err
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     f.name,
			"filename": filepath.Base(f.file.Name),
		}))
		h.Set("Content-Type", contentTypeFor(f.file.Name))
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.file.Reader); err != nil {
			return err
		}
	}
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
