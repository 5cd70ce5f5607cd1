// AngelaMos | 2026
// handler_test.go

package user

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattgrid/marketplace-api/internal/middleware"
)

const testMaxUpload = 1 << 20

func multipartBody(t *testing.T, docType string, file []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if docType != "" {
		require.NoError(t, mw.WriteField("document_type", docType))
	}
	if file != nil {
		part, err := mw.CreateFormFile("document", "upload.bin")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, h *Handler, docType string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, docType, file)
	r := httptest.NewRequest(http.MethodPost, "/profile/upload-kyc", body)
	r.Header.Set("Content-Type", contentType)
	r = r.WithContext(middleware.WithUser(r.Context(), "u-seller", RoleSeller))

	rec := httptest.NewRecorder()
	h.UploadKYC(rec, r)
	return rec
}

func responseError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string) //nolint:errcheck // zero value on mismatch
	return msg
}

func newUploadHandler(store DocumentStore) *Handler {
	svc := NewService(newRepoStub(sellerUser()), nil, store, &kycNotifierStub{}, &auditorStub{})
	return NewHandler(svc, testMaxUpload)
}

func TestUploadKYCHandler(t *testing.T) {
	h := newUploadHandler(&storeStub{})

	rec := uploadRequest(t, h, DocGSTCertificate, pdfBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Document uploaded successfully", body.Message)
}

func TestUploadKYCHandler_TooLarge(t *testing.T) {
	h := newUploadHandler(&storeStub{})

	big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("a"), testMaxUpload)...)
	rec := uploadRequest(t, h, DocGSTCertificate, big)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File too large, maximum size is 1 MB", responseError(t, rec))
}

func TestUploadKYCHandler_WrongType(t *testing.T) {
	h := newUploadHandler(&storeStub{})

	rec := uploadRequest(t, h, DocGSTCertificate, []byte("plain text is not a document"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only PDF, JPG and PNG files are allowed", responseError(t, rec))
}

func TestUploadKYCHandler_BadDocumentType(t *testing.T) {
	h := newUploadHandler(&storeStub{})

	rec := uploadRequest(t, h, "passport-selfie", pdfBytes)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", responseError(t, rec))
}

func TestUploadKYCHandler_MissingFile(t *testing.T) {
	h := newUploadHandler(&storeStub{})

	rec := uploadRequest(t, h, DocGSTCertificate, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", responseError(t, rec))
}

func TestUploadKYCHandler_StorageDisabled(t *testing.T) {
	h := newUploadHandler(nil)

	rec := uploadRequest(t, h, DocGSTCertificate, pdfBytes)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	admin := &User{ID: "u-admin", Role: RoleAdmin, IsActive: true}
	svc := NewService(newRepoStub(sellerUser(), admin), nil, nil, &kycNotifierStub{}, &auditorStub{})
	h := NewHandler(svc, testMaxUpload)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), "u-root", RoleAdmin)))
		})
	})
	h.RegisterAdminRoutes(r)

	cases := []struct {
		path string
		code int
		msg  string
	}{
		{"/users/u-admin/suspend", http.StatusForbidden, "Admin accounts cannot be suspended"},
		{"/users/ghost/approve-kyc", http.StatusNotFound, "User not found"},
		{"/users/u-seller/suspend", http.StatusOK, ""},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))

		assert.Equal(t, tc.code, rec.Code, tc.path)
		if tc.msg != "" {
			assert.Equal(t, tc.msg, responseError(t, rec), tc.path)
		}
	}
}
