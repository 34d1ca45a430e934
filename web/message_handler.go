package web

import (
	"fmt"
	"net/http"

	"github.com/neighborhq/neighbor/types"
)

// maxUploadBytes bounds a whole multipart upload request.
const maxUploadBytes = 120 << 20

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	pageArgs, err := parsePageArgs(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.Messages(r.Context(), types.ListMessages{
		ConversationID: r.PathValue("conversationID"),
		PageArgs:       pageArgs,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusOK)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content     string             `json:"content"`
		Type        types.MessageType  `json:"type"`
		Attachments []types.Attachment `json:"attachments"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondErr(w, r, err)
		return
	}

	out, err := h.Service.CreateMessage(r.Context(), types.CreateMessage{
		ConversationID: r.PathValue("conversationID"),
		Content:        body.Content,
		Type:           body.Type,
		Attachments:    body.Attachments,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, out, http.StatusCreated)
}

// uploadAttachments stores pending attachments and returns the
// references to embed in a subsequent message create.
func (h *Handler) uploadAttachments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.respondErr(w, r, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	var files []*types.UploadAttachment
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			h.respondErr(w, r, fmt.Errorf("open multipart file: %w", err))
			return
		}
		defer f.Close()

		file := &types.UploadAttachment{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        uint64(header.Size),
		}
		file.SetReader(f)
		files = append(files, file)
	}

	out, err := h.Service.UploadAttachments(r.Context(), files)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, map[string]any{"attachments": out}, http.StatusCreated)
}
