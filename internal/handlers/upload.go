package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/roomdrop/roomdrop/internal/metrics"
	"github.com/roomdrop/roomdrop/internal/store"
)

// UploadResponse returns the reference URL callers embed as the content of
// image/pdf/file messages.
type UploadResponse struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
}

// Upload stores a file as an ephemeral blob under a ULID key. Uploads live
// exactly as long as rooms do; nothing uploaded here outlasts the TTL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer part.Close()

	if header.Size > h.maxUploadBytes {
		h.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(part, h.maxUploadBytes+1))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	fileID := ulid.Make().String()
	file := &store.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	if err := h.store.PutFile(r.Context(), fileID, file); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	metrics.UploadsStored.Inc()
	h.JSON(w, http.StatusCreated, UploadResponse{
		FileID: fileID,
		URL:    fmt.Sprintf("/api/uploads/%s", fileID),
		Name:   header.Filename,
		Size:   int64(len(data)),
	})
}

// GetUpload serves a stored blob until it expires with its TTL window.
func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	file, err := h.store.GetFile(r.Context(), fileID)
	if errors.Is(err, store.ErrFileNotFound) {
		h.Error(w, http.StatusNotFound, "file not found or has expired")
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch file")
		return
	}

	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if file.Name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	}
	w.Write(file.Data)
}
