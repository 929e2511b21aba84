package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/agrolink-io/agrolink/internal/j1939"
	"github.com/agrolink-io/agrolink/pkg/log"
	"github.com/agrolink-io/agrolink/pkg/options"
)

// Archive persists diagnostic reports to an S3-compatible object store so
// fleet maintenance can review fault history after a machine leaves the
// field.
type Archive struct {
	client     *minio.Client
	bucketName string
}

// report is the serialized form of one archived diagnostic snapshot.
type report struct {
	MachineID  string      `json:"machine_id"`
	CapturedAt time.Time   `json:"captured_at"`
	Codes      []j1939.DTC `json:"codes"`
}

// New creates an Archive backed by the configured S3 endpoint.
func New(opts *options.S3Options) (*Archive, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Archive{
		client:     client,
		bucketName: opts.BucketName,
	}, nil
}

// EnsureBucket checks the configured bucket exists, creating it when absent.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", a.bucketName)
		if err := a.client.MakeBucket(ctx, a.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// StoreReport uploads the given trouble codes as one JSON report under
// dtc/{machineID}/{timestamp}.json.
func (a *Archive) StoreReport(ctx context.Context, machineID string, codes []j1939.DTC) error {
	r := report{
		MachineID:  machineID,
		CapturedAt: time.Now().UTC(),
		Codes:      codes,
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostic report: %w", err)
	}

	objectKey := fmt.Sprintf("dtc/%s/%s.json", machineID, r.CapturedAt.Format("20060102T150405Z"))

	_, err = a.client.PutObject(ctx, a.bucketName, objectKey,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload diagnostic report: %w", err)
	}

	log.Debug("Archived diagnostic report", "object", objectKey, "codes", len(codes))
	return nil
}
