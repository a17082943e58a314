package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
)

type fakeObjectAPI struct {
	putErr    error
	lastKey   string
	lastBody  []byte
	getObject func(key string) (io.ReadCloser, error)
}

func (f *fakeObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (f *fakeObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return nil
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.lastKey = objectName
	body := make([]byte, objectSize)
	_, _ = reader.Read(body)
	f.lastBody = body
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (f *fakeObjectAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("GetObject not supported by fake in this test")
}

func TestMirrorRecord_WritesJSONObjectKeyedByCanonicalName(t *testing.T) {
	api := &fakeObjectAPI{}
	m := NewWithAPI(api, "irae-records", logging.NewNop())

	rec := ingredient.IngredientRecord{
		CanonicalName: "glycerin",
		EcoScore:      80,
		RiskLevel:     ingredient.RiskLow,
	}
	require.NoError(t, m.MirrorRecord(context.Background(), rec))

	assert.Equal(t, "records/glycerin.json", api.lastKey)
	assert.Contains(t, string(api.lastBody), `"CanonicalName":"glycerin"`)
}

func TestMirrorRecord_PropagatesPutObjectError(t *testing.T) {
	api := &fakeObjectAPI{putErr: errors.New("connection refused")}
	m := NewWithAPI(api, "irae-records", logging.NewNop())

	err := m.MirrorRecord(context.Background(), ingredient.IngredientRecord{CanonicalName: "water"})
	require.Error(t, err)
}

func TestObjectKey_UsesRecordsPrefix(t *testing.T) {
	assert.Equal(t, "records/shea-butter.json", objectKey("shea-butter"))
}
