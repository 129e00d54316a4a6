package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// ReportArchive persists negotiation reports as JSON objects.  It implements
// the negotiation report-archive port.
type ReportArchive struct {
	client *Client
	log    logging.Logger
}

// NewReportArchive constructs an archive on an established client.
func NewReportArchive(client *Client, log logging.Logger) *ReportArchive {
	if log == nil {
		log = logging.NewNop()
	}
	return &ReportArchive{client: client, log: log}
}

// reportKey shards report objects by RFQ so all revisions for one RFQ list
// under a single prefix.
func reportKey(r *negotiation.Report) string {
	return fmt.Sprintf("reports/%s/%s.json", r.RFQID, r.ID)
}

// ArchiveReport stores the report and returns its object location.
func (a *ReportArchive) ArchiveReport(ctx context.Context, r *negotiation.Report) (string, error) {
	if r == nil || r.RFQID == "" {
		return "", errors.Validation("report", "report with an rfq id is required")
	}
	if err := a.client.checkOpen(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal report")
	}

	key := reportKey(r)
	start := time.Now()
	_, err = a.client.api.PutObject(ctx, a.client.bucket, key,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"rfq-id":       string(r.RFQID),
				"generated-at": r.GeneratedAt.UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeReportArchiveFailed, "failed to archive report")
	}

	location := fmt.Sprintf("s3://%s/%s", a.client.bucket, key)
	a.log.Info("report archived",
		logging.String("rfq_id", string(r.RFQID)),
		logging.String("location", location),
		logging.Int("bytes", len(data)),
		logging.Duration("took", time.Since(start)))
	return location, nil
}

// FetchReport loads a previously archived report by object key.
func (a *ReportArchive) FetchReport(ctx context.Context, key string) (*negotiation.Report, error) {
	if err := a.client.checkOpen(); err != nil {
		return nil, err
	}

	obj, err := a.client.api.GetObject(ctx, a.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to fetch report object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, errors.New(errors.ErrCodeNotFound, "report not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read report object")
	}

	var report negotiation.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode archived report")
	}
	return &report, nil
}

// DeleteReport removes an archived report.  Missing objects are ignored.
func (a *ReportArchive) DeleteReport(ctx context.Context, key string) error {
	if err := a.client.checkOpen(); err != nil {
		return err
	}
	if err := a.client.api.RemoveObject(ctx, a.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete report object")
	}
	return nil
}
