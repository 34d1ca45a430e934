// Package minio is the attachment-store boundary. The messaging core
// hands it an already-validated file and keeps only the returned
// reference; the blob itself is opaque from here on.
package minio

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/neighborhq/neighbor/id"
	"github.com/neighborhq/neighbor/types"
	"golang.org/x/sync/errgroup"
)

const AttachmentsBucket = "message-attachments"

type Minio struct {
	baseCtx        context.Context
	cleanupTimeout time.Duration
	client         *minio.Client
	publicURL      string
	errChan        chan error
}

func New(ctx context.Context, client *minio.Client, publicURL string, cleanupTimeout time.Duration) *Minio {
	return &Minio{
		baseCtx:        ctx,
		cleanupTimeout: cleanupTimeout,
		client:         client,
		publicURL:      publicURL,
		errChan:        make(chan error, 1),
	}
}

func (m *Minio) Errs() <-chan error {
	return m.errChan
}

// Upload stores one attachment and returns its stable reference plus
// a cleanup func that removes the object again if the enclosing
// operation fails after the upload succeeded.
func (m *Minio) Upload(ctx context.Context, in *types.UploadAttachment) (types.Attachment, func(), error) {
	var out types.Attachment

	objectName := id.Generate() + "-" + path.Base(in.Name)

	info, err := m.client.PutObject(ctx, AttachmentsBucket, objectName, in.Reader(), int64(in.Size), minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return out, nil, fmt.Errorf("put object: %w", err)
	}

	out = types.Attachment{
		URL:         m.publicURL + "/" + AttachmentsBucket + "/" + objectName,
		Name:        in.Name,
		Size:        in.Size,
		ContentType: in.ContentType,
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(m.baseCtx, m.cleanupTimeout)
		defer cancel()

		if err := m.client.RemoveObject(ctx, AttachmentsBucket, objectName, minio.RemoveObjectOptions{
			VersionID: info.VersionID,
		}); err != nil {
			select {
			case m.errChan <- fmt.Errorf("remove object %s: %w", objectName, err):
			default:
			}
		}
	}

	return out, cleanup, nil
}

// UploadMany uploads concurrently. On any failure the already-stored
// objects are removed and the whole batch fails.
func (m *Minio) UploadMany(ctx context.Context, files []*types.UploadAttachment) ([]types.Attachment, func(), error) {
	if len(files) == 0 {
		return nil, func() {}, nil
	}

	var mu sync.Mutex
	var cleanupFuncs []func()
	attachments := make([]types.Attachment, len(files))

	g, gctx := errgroup.WithContext(ctx)

	for i, file := range files {
		g.Go(func() error {
			attachment, cleanup, err := m.Upload(gctx, file)
			if err != nil {
				return fmt.Errorf("upload %s failed: %w", file.Name, err)
			}

			attachments[i] = attachment

			mu.Lock()
			cleanupFuncs = append(cleanupFuncs, cleanup)
			mu.Unlock()

			return nil
		})
	}

	cleanup := func() {
		var wg sync.WaitGroup
		for _, fn := range cleanupFuncs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn()
			}()
		}
		wg.Wait()
	}

	if err := g.Wait(); err != nil {
		go cleanup()
		return nil, nil, fmt.Errorf("upload group failed: %w", err)
	}

	return attachments, cleanup, nil
}

// CreateReadOnlyBucket creates the bucket if needed and opens it for
// public reads so attachment URLs resolve without signing.
func (m *Minio) CreateReadOnlyBucket(ctx context.Context, bucketName string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}

	readOnlyPolicy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": "*",
				"Action": ["s3:GetObject"],
				"Resource": ["arn:aws:s3:::%s/*"]
			}
		]
	}`, bucketName)

	if err := m.client.SetBucketPolicy(ctx, bucketName, readOnlyPolicy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}

	return nil
}
