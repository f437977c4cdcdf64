package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gallerysync/internal/common"
	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/auth"
	"github.com/dmitrijs2005/gallerysync/internal/server/executor"
	"github.com/dmitrijs2005/gallerysync/internal/server/models"
	"github.com/dmitrijs2005/gallerysync/internal/server/services"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	gotGallery int64
	gotOwner   int64
	gotFiles   []services.UploadFile

	result *services.UploadResult
	err    error
}

func (f *fakeUploader) Upload(ctx context.Context, galleryID, ownerID int64, files []services.UploadFile) (*services.UploadResult, error) {
	f.gotGallery, f.gotOwner, f.gotFiles = galleryID, ownerID, files
	return f.result, f.err
}

type fakeDeleter struct {
	photoID, galleryID, requester int64

	err error
}

func (f *fakeDeleter) DeletePhoto(ctx context.Context, photoID, requesterID int64) error {
	f.photoID, f.requester = photoID, requesterID
	return f.err
}

func (f *fakeDeleter) DeleteGallery(ctx context.Context, galleryID, requesterID int64) error {
	f.galleryID, f.requester = galleryID, requesterID
	return f.err
}

func newTestServer(up *fakeUploader, del *fakeDeleter) *HTTPServer {
	return NewHTTPServer("127.0.0.1:0", logging.Discard(), up, del, testSecret, 1<<10)
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

type part struct {
	field, name string
	body        []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, s *HTTPServer, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func uploadRequest(t *testing.T, authHeader, path string, parts ...part) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

func jsonRequest(t *testing.T, authHeader, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

func TestUploadPhotos_Success(t *testing.T) {
	up := &fakeUploader{result: &services.UploadResult{
		Uploaded: []*models.Photo{{ID: 101, GalleryID: 4, Filename: "2024-05-01_101.jpg"}},
		Failures: []*services.FileError{},
	}}
	s := newTestServer(up, &fakeDeleter{})

	req := uploadRequest(t, bearer(t, 7), "/galleries/4/photos",
		part{"photos", "a.jpg", []byte("jpeg-bytes")},
		part{"photos[]", "b.png", []byte("png-bytes")},
	)
	rec, env := do(t, s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, 200, env.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	assert.Equal(t, int64(4), up.gotGallery)
	assert.Equal(t, int64(7), up.gotOwner)
	require.Len(t, up.gotFiles, 2)
	assert.Equal(t, "a.jpg", up.gotFiles[0].Filename)
	assert.Equal(t, []byte("jpeg-bytes"), up.gotFiles[0].Data)
	assert.Equal(t, "b.png", up.gotFiles[1].Filename)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	uploaded, ok := data["uploaded"].([]any)
	require.True(t, ok)
	assert.Len(t, uploaded, 1)
}

func TestUploadPhotos_Validation(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		parts []part
		msg   string
	}{
		{"bad gallery id", "/galleries/abc/photos", []part{{"photos", "a.jpg", []byte("x")}}, "invalid gallery id"},
		{"no files", "/galleries/4/photos", []part{{"other", "a.jpg", []byte("x")}}, "at least one photo is required"},
		{"wrong type", "/galleries/4/photos", []part{{"photos", "a.gif", []byte("x")}}, "validation failed"},
		{"too large", "/galleries/4/photos", []part{{"photos", "a.jpg", bytes.Repeat([]byte("x"), 2<<10)}}, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			s := newTestServer(up, &fakeDeleter{})

			rec, env := do(t, s, uploadRequest(t, bearer(t, 7), tt.path, tt.parts...))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "client_error", env.Status)
			assert.Equal(t, tt.msg, env.Message)
			assert.Nil(t, up.gotFiles)
		})
	}
}

func TestUploadPhotos_BodyTooLarge(t *testing.T) {
	up := &fakeUploader{}
	s := newTestServer(up, &fakeDeleter{})

	huge := bytes.Repeat([]byte("x"), int(s.maxRequestSize())+1)
	rec, env := do(t, s, uploadRequest(t, bearer(t, 7), "/galleries/4/photos", part{"photos", "a.jpg", huge}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "client_error", env.Status)
	assert.Nil(t, up.gotFiles)
}

func TestUploadPhotos_TooManyFiles(t *testing.T) {
	up := &fakeUploader{}
	s := newTestServer(up, &fakeDeleter{})

	parts := make([]part, maxFilesPerRequest+1)
	for i := range parts {
		parts[i] = part{"photos", fmt.Sprintf("p%d.jpg", i), []byte("x")}
	}
	rec, env := do(t, s, uploadRequest(t, bearer(t, 7), "/galleries/4/photos", parts...))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "at most 20 photos per request", env.Message)
	assert.Nil(t, up.gotFiles)
}

func TestUploadPhotos_ErrorMapping(t *testing.T) {
	batchErr := fmt.Errorf("upload: %w", &executor.BatchError{Total: 2})

	tests := []struct {
		name   string
		err    error
		code   int
		status string
	}{
		{"not owner", common.ErrorUnauthorized, http.StatusUnauthorized, "client_error"},
		{"missing gallery", fmt.Errorf("load: %w", common.ErrorNotFound), http.StatusNotFound, "client_error"},
		{"store down", batchErr, http.StatusBadGateway, "server_error"},
		{"database down", errors.New("conn refused"), http.StatusInternalServerError, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeUploader{err: tt.err}, &fakeDeleter{})

			rec, env := do(t, s, uploadRequest(t, bearer(t, 7), "/galleries/4/photos", part{"photos", "a.jpg", []byte("x")}))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, env.Status)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestUploadPhotos_RequiresToken(t *testing.T) {
	up := &fakeUploader{}
	s := newTestServer(up, &fakeDeleter{})

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer not-a-jwt"} {
		rec, env := do(t, s, uploadRequest(t, header, "/galleries/4/photos", part{"photos", "a.jpg", []byte("x")}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "client_error", env.Status)
	}
	assert.Nil(t, up.gotFiles)
}

func TestDeletePhoto(t *testing.T) {
	del := &fakeDeleter{}
	s := newTestServer(&fakeUploader{}, del)

	rec, env := do(t, s, jsonRequest(t, bearer(t, 7), "/galleries/photos/delete", `{"photo_id": 50}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Nil(t, env.Data)
	assert.Equal(t, int64(50), del.photoID)
	assert.Equal(t, int64(7), del.requester)
}

func TestDeletePhoto_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"missing id", `{}`, nil, http.StatusBadRequest},
		{"garbage", `not json`, nil, http.StatusBadRequest},
		{"not owner", `{"photo_id": 1}`, common.ErrorUnauthorized, http.StatusUnauthorized},
		{"not found", `{"photo_id": 1}`, common.ErrorNotFound, http.StatusNotFound},
		{"store down", `{"photo_id": 1}`, &executor.BatchError{Total: 2}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeUploader{}, &fakeDeleter{err: tt.err})
			rec, env := do(t, s, jsonRequest(t, bearer(t, 7), "/galleries/photos/delete", tt.body))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestDeleteGallery(t *testing.T) {
	del := &fakeDeleter{}
	s := newTestServer(&fakeUploader{}, del)

	rec, env := do(t, s, jsonRequest(t, bearer(t, 9), "/galleries/delete", `{"gallery_id": 4}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, int64(4), del.galleryID)
	assert.Equal(t, int64(9), del.requester)

	del.err = common.ErrorUnauthorized
	rec, env = do(t, s, jsonRequest(t, bearer(t, 9), "/galleries/delete", `{"gallery_id": 4}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Message)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeUploader{}, &fakeDeleter{})

	rec, env := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
}
