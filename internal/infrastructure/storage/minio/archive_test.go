package minio

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

type putCall struct {
	bucket string
	key    string
	data   []byte
	opts   minio.PutObjectOptions
}

type fakeStorage struct {
	bucketExists bool
	puts         []putCall
	putErr       error
	removed      []string
}

func (f *fakeStorage) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeStorage) MakeBucket(_ context.Context, _ string, _ minio.MakeBucketOptions) error {
	f.bucketExists = true
	return nil
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.puts = append(f.puts, putCall{bucket: bucket, key: key, data: data, opts: opts})
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) GetObject(_ context.Context, _, _ string, _ minio.GetObjectOptions) (*minio.Object, error) {
	return nil, assert.AnError
}

func (f *fakeStorage) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, key)
	return nil
}

func testReport() *negotiation.Report {
	return &negotiation.Report{
		ID:          common.ID("rep-1"),
		RFQID:       common.ID("rfq-1"),
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestArchiveReportWritesJSONObject(t *testing.T) {
	fs := &fakeStorage{}
	archive := NewReportArchive(NewClientWithAPI(fs, "sourcing-reports", nil), nil)

	location, err := archive.ArchiveReport(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, "s3://sourcing-reports/reports/rfq-1/rep-1.json", location)

	require.Len(t, fs.puts, 1)
	put := fs.puts[0]
	assert.Equal(t, "sourcing-reports", put.bucket)
	assert.Equal(t, "reports/rfq-1/rep-1.json", put.key)
	assert.Equal(t, "application/json", put.opts.ContentType)
	assert.Equal(t, "rfq-1", put.opts.UserMetadata["rfq-id"])

	var stored negotiation.Report
	require.NoError(t, json.Unmarshal(put.data, &stored))
	assert.Equal(t, common.ID("rfq-1"), stored.RFQID)
}

func TestArchiveReportRejectsNilReport(t *testing.T) {
	archive := NewReportArchive(NewClientWithAPI(&fakeStorage{}, "b", nil), nil)

	_, err := archive.ArchiveReport(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestArchiveReportWrapsUploadFailure(t *testing.T) {
	fs := &fakeStorage{putErr: assert.AnError}
	archive := NewReportArchive(NewClientWithAPI(fs, "b", nil), nil)

	_, err := archive.ArchiveReport(context.Background(), testReport())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReportArchiveFailed))
}

func TestClosedClientRejectsOperations(t *testing.T) {
	client := NewClientWithAPI(&fakeStorage{}, "b", nil)
	archive := NewReportArchive(client, nil)
	require.NoError(t, client.Close())

	_, err := archive.ArchiveReport(context.Background(), testReport())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestDeleteReportRemovesObject(t *testing.T) {
	fs := &fakeStorage{}
	archive := NewReportArchive(NewClientWithAPI(fs, "b", nil), nil)

	require.NoError(t, archive.DeleteReport(context.Background(), "reports/rfq-1/rep-1.json"))
	assert.Equal(t, []string{"reports/rfq-1/rep-1.json"}, fs.removed)
}
