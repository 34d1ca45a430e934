package types

import (
	"io"

	"github.com/neighborhq/neighbor/errs"
)

const (
	maxImageSize = 5 << 20  // 5 MiB
	maxFileSize  = 10 << 20 // 10 MiB
)

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var fileContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/zip":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/plain": true,
	"text/csv":   true,
}

// Attachment is the stable reference handed back by the attachment
// store. Messages persist only this; the blob itself is opaque.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        uint64 `json:"size"`
	ContentType string `json:"type"`
}

// UploadAttachment is a pending upload. Validation happens here, in
// the messaging layer, and a rejected upload never reaches the store.
type UploadAttachment struct {
	Name        string
	ContentType string
	Size        uint64

	reader io.ReadSeeker
}

func (in *UploadAttachment) SetReader(reader io.ReadSeeker) {
	in.reader = reader
}

func (in *UploadAttachment) Reader() io.ReadSeeker {
	return in.reader
}

func (in *UploadAttachment) IsImage() bool {
	return imageContentTypes[in.ContentType]
}

func (in *UploadAttachment) Validate() error {
	if in.Name == "" {
		return errs.NewInvalidArgumentError("Name", "File name is required")
	}

	switch {
	case imageContentTypes[in.ContentType]:
		if in.Size > maxImageSize {
			return errs.NewInvalidArgumentError("Size", "Images must be at most 5MB")
		}
	case fileContentTypes[in.ContentType]:
		if in.Size > maxFileSize {
			return errs.NewInvalidArgumentError("Size", "Files must be at most 10MB")
		}
	default:
		return errs.NewInvalidArgumentError("ContentType", "File type is not allowed")
	}

	return nil
}
