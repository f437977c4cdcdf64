package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gallerysync/internal/server/services"
	"github.com/dmitrijs2005/gallerysync/internal/server/storagekey"
)

// photoFields are the multipart field names accepted for uploaded files.
var photoFields = []string{"photos", "photos[]"}

var allowedExtensions = map[string]bool{"jpeg": true, "jpg": true, "png": true}

const (
	maxFilesPerRequest = 20
	formOverhead       = 1 << 20
)

type deletePhotoRequest struct {
	PhotoID int64 `json:"photo_id" binding:"required,gt=0"`
}

type deleteGalleryRequest struct {
	GalleryID int64 `json:"gallery_id" binding:"required,gt=0"`
}

func (s *HTTPServer) uploadPhotos(c *gin.Context) {
	galleryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || galleryID <= 0 {
		clientError(c, http.StatusBadRequest, "invalid gallery id", nil)
		return
	}

	if limit := s.maxRequestSize(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			clientError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body may not be greater than %d bytes", tooLarge.Limit), nil)
			return
		}
		clientError(c, http.StatusBadRequest, "multipart form expected", nil)
		return
	}

	var headers []*multipart.FileHeader
	for _, field := range photoFields {
		headers = append(headers, form.File[field]...)
	}
	if len(headers) == 0 {
		clientError(c, http.StatusBadRequest, "at least one photo is required", nil)
		return
	}

	if len(headers) > maxFilesPerRequest {
		clientError(c, http.StatusBadRequest, fmt.Sprintf("at most %d photos per request", maxFilesPerRequest), nil)
		return
	}

	if problems := s.validateFiles(headers); len(problems) > 0 {
		clientError(c, http.StatusBadRequest, "validation failed", problems)
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			s.writeError(c, err, nil)
			return
		}
		files = append(files, services.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := s.uploader.Upload(c.Request.Context(), galleryID, requesterID(c), files)
	if err != nil {
		s.writeError(c, err, result)
		return
	}

	success(c, http.StatusOK, result)
}

// maxRequestSize caps the whole multipart body: a full batch of files at the
// per-file limit plus room for part headers. Zero means no cap.
func (s *HTTPServer) maxRequestSize() int64 {
	if s.maxUploadSize <= 0 {
		return 0
	}
	return s.maxUploadSize*maxFilesPerRequest + formOverhead
}

// validateFiles returns a message per offending file, keyed "photos.N".
func (s *HTTPServer) validateFiles(headers []*multipart.FileHeader) map[string]string {
	problems := map[string]string{}
	for i, fh := range headers {
		key := fmt.Sprintf("photos.%d", i)
		if !allowedExtensions[storagekey.Ext(fh.Filename)] {
			problems[key] = "must be a file of type: jpeg, jpg, png"
			continue
		}
		if s.maxUploadSize > 0 && fh.Size > s.maxUploadSize {
			problems[key] = fmt.Sprintf("may not be greater than %d bytes", s.maxUploadSize)
		}
	}
	return problems
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func (s *HTTPServer) deletePhoto(c *gin.Context) {
	var req deletePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		clientError(c, http.StatusBadRequest, "photo_id is required", nil)
		return
	}

	if err := s.deleter.DeletePhoto(c.Request.Context(), req.PhotoID, requesterID(c)); err != nil {
		s.writeError(c, err, nil)
		return
	}

	success(c, http.StatusOK, nil)
}

func (s *HTTPServer) deleteGallery(c *gin.Context) {
	var req deleteGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		clientError(c, http.StatusBadRequest, "gallery_id is required", nil)
		return
	}

	if err := s.deleter.DeleteGallery(c.Request.Context(), req.GalleryID, requesterID(c)); err != nil {
		s.writeError(c, err, nil)
		return
	}

	success(c, http.StatusOK, nil)
}
