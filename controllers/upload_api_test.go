package controllers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func multipartUpload(t *testing.T, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	_, r := testEnv(t)
	_, token := registerUser(t, r, "uploader")

	body, contentType := multipartUpload(t, "avatar.png", "image/png", []byte("fake png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL string `json:"url"`
	}
	decode(t, w, &resp)
	if !strings.HasPrefix(resp.URL, "/static/uploads/") || !strings.HasSuffix(resp.URL, "avatar.png") {
		t.Errorf("url = %q", resp.URL)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	_, r := testEnv(t)
	_, token := registerUser(t, r, "uploader")

	body, contentType := multipartUpload(t, "shell.php", "application/x-php", []byte("<?php ?>"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	_, r := testEnv(t)

	body, contentType := multipartUpload(t, "avatar.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
