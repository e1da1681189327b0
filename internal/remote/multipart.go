// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

package remote

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Multipart assembles an inventory aggregate payload.
//
// # Omission vs. explicit empty
//
// The inventory service distinguishes an omitted field ("leave as is") from a
// field submitted with an empty value ("clear it"). Fields are therefore only
// written when explicitly added; callers clearing a value add it with "".
type Multipart struct {
	fields []multipartField
	files  []multipartFile
}

type multipartField struct {
	name  string
	value string
}

type multipartFile struct {
	field    string
	filename string
	content  io.Reader
}

// AddField appends a simple key/value field. Adding a field with an empty
// value submits an explicit empty — it is not dropped.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, multipartField{name: name, value: value})
	return m
}

// AddFile appends a file part.
func (m *Multipart) AddFile(field, filename string, content io.Reader) *Multipart {
	m.files = append(m.files, multipartFile{field: field, filename: filename, content: content})
	return m
}

// Encode renders the payload and returns the body reader plus content type.
func (m *Multipart) Encode() (io.Reader, string, error) {
	buffer := &bytes.Buffer{}
	writer := multipart.NewWriter(buffer)

	for _, field := range m.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("remote: write field %q: %w", field.name, err)
		}
	}

	for _, file := range m.files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("remote: create file part %q: %w", file.filename, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return nil, "", fmt.Errorf("remote: copy file %q: %w", file.filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("remote: finalize multipart: %w", err)
	}

	return buffer, writer.FormDataContentType(), nil
}
