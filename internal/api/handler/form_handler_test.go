package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"

	"recruitflow-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formTestServer mounts Apply without backing stores. The validation layer
// rejects bad submissions before any store is touched.
func formTestServer(maxUploadBytes int64) *server.Hertz {
	cfg := &config.Config{}
	cfg.Form.MaxUploadBytes = maxUploadBytes

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	fh := NewFormHandler(nil, nil, cfg)
	h.POST("/form/apply", fh.Apply)
	return h
}

func applicationFields() map[string]string {
	return map[string]string{
		"name":         "Ana Torres",
		"dni":          "12345678",
		"email":        "ana@example.com",
		"process_code": "0007-20250314-00001",
	}
}

// buildApplication assembles a multipart submission. An empty fileName
// leaves the cv part out entirely.
func buildApplication(t *testing.T, fields map[string]string, fileName, contentType string, fileSize int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="cv"; filename="%s"`, fileName))
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), fileSize))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func errorDetail(t *testing.T, body []byte) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload["detail"]
}

func TestApplyRejectsIncompleteSubmission(t *testing.T) {
	h := formTestServer(1024)

	fields := applicationFields()
	delete(fields, "email")
	body, ct := buildApplication(t, fields, "cv.pdf", "application/pdf", 10)

	resp := ut.PerformRequest(h.Engine, "POST", "/form/apply",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, consts.StatusBadRequest, resp.Code)
	assert.Equal(t, "name, dni, email y process_code son obligatorios", errorDetail(t, resp.Body.Bytes()))
}

func TestApplyRejectsMissingFile(t *testing.T) {
	h := formTestServer(1024)

	body, ct := buildApplication(t, applicationFields(), "", "", 0)

	resp := ut.PerformRequest(h.Engine, "POST", "/form/apply",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, consts.StatusBadRequest, resp.Code)
	assert.Equal(t, "Archivo CV no encontrado", errorDetail(t, resp.Body.Bytes()))
}

func TestApplyRejectsDisallowedContentType(t *testing.T) {
	h := formTestServer(1024)

	body, ct := buildApplication(t, applicationFields(), "cv.exe", "application/octet-stream", 10)

	resp := ut.PerformRequest(h.Engine, "POST", "/form/apply",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, consts.StatusBadRequest, resp.Code)
	assert.Equal(t, "Formato CV no permitido", errorDetail(t, resp.Body.Bytes()))
}

func TestApplyRejectsOversizedFile(t *testing.T) {
	h := formTestServer(1024)

	body, ct := buildApplication(t, applicationFields(), "cv.pdf", "application/pdf", 2048)

	resp := ut.PerformRequest(h.Engine, "POST", "/form/apply",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct})
	assert.Equal(t, consts.StatusBadRequest, resp.Code)
	assert.Equal(t, "CV excede tamaño máximo", errorDetail(t, resp.Body.Bytes()))
}
