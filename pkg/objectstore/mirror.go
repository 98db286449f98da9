package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Mirror copies a completed work's audio directory to object storage so the
// rendered audiobook survives local disk rotation.
type Mirror struct {
	client *minio.Client
	bucket string
}

func NewMirror(client *minio.Client, bucket string) *Mirror {
	return &Mirror{client: client, bucket: bucket}
}

// UploadDir walks localPath and uploads every file under remotePrefix.
func (m *Mirror) UploadDir(ctx context.Context, localPath, remotePrefix string) error {
	return filepath.Walk(localPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(localPath, path)
		if err != nil {
			return err
		}

		objectName := filepath.Join(remotePrefix, relativePath)
		objectName = strings.ReplaceAll(objectName, "\\", "/")

		_, uploadErr := m.client.FPutObject(ctx, m.bucket, objectName, path, minio.PutObjectOptions{})
		return uploadErr
	})
}
