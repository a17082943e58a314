// Package minio implements the §4.10 document-store mirror: the "cloud
// document store" referenced by §4.6's dual-write contract, backed by a
// MinIO bucket holding one JSON object per canonical_name
// (records/<canonical_name>.json), overwritten on every aggregation. It
// satisfies dualstore.MirrorStore; a mirror failure here is logged and
// counted by the caller but never fails the resolution.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// objectAPI is the subset of *minio.Client the mirror needs, kept narrow so
// tests can substitute a fake.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// clientAdapter narrows *minio.Client's PutObject (which takes io.Reader)
// down to objectAPI's *bytes.Reader signature used by Mirror.
type clientAdapter struct{ *minio.Client }

func (c clientAdapter) PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return c.Client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

// Mirror is the §4.10 document-store mirror.
type Mirror struct {
	api    objectAPI
	bucket string
	log    logging.Logger
}

// New constructs a Mirror from configuration, verifying connectivity and
// ensuring the target bucket exists.
func New(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Mirror, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.Named("minio-mirror")

	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create minio client")
	}

	m := &Mirror{api: clientAdapter{cl}, bucket: cfg.Bucket, log: log}

	exists, err := m.api.BucketExists(ctx, m.bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to check minio bucket")
	}
	if !exists {
		if err := m.api.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("failed to create bucket %s", m.bucket))
		}
		log.Info("created document-store mirror bucket", logging.String("bucket", m.bucket))
	}
	return m, nil
}

// NewWithAPI injects a fake objectAPI; used by tests.
func NewWithAPI(api objectAPI, bucket string, log logging.Logger) *Mirror {
	if log == nil {
		log = logging.Default()
	}
	return &Mirror{api: api, bucket: bucket, log: log.Named("minio-mirror")}
}

func objectKey(name ingredient.CanonicalName) string {
	return fmt.Sprintf("records/%s.json", name)
}

// MirrorRecord writes rec as a JSON object, overwriting any prior mirror
// state for the same canonical_name (§4.10).
func (m *Mirror) MirrorRecord(ctx context.Context, rec ingredient.IngredientRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to marshal record for mirror")
	}

	_, err = m.api.PutObject(ctx, m.bucket, objectKey(rec.CanonicalName), bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "minio put object failed")
	}
	return nil
}

// FetchRecord reads back the mirrored JSON object for canonical_name so the
// mirror state can be inspected directly. The reconciler does not call it:
// it re-reads the record from the primary store and rewrites the object.
func (m *Mirror) FetchRecord(ctx context.Context, name ingredient.CanonicalName) (ingredient.IngredientRecord, error) {
	obj, err := m.api.GetObject(ctx, m.bucket, objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return ingredient.IngredientRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "minio get object failed")
	}
	defer obj.Close()

	var rec ingredient.IngredientRecord
	if err := json.NewDecoder(obj).Decode(&rec); err != nil {
		return ingredient.IngredientRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to decode mirrored record")
	}
	return rec, nil
}
