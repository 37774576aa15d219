package storage

import (
	"bytes"
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type minioAuditArchive struct {
	Client *minio.Client
	Bucket string
	Log    *zap.Logger
}

var (
	auditArchiveInstance contracts.AuditArchive
	onceAuditArchive     sync.Once
)

func NewMinioAuditArchive(client *minio.Client, driverConfig *config.DriverConfig, logger *zap.Logger) contracts.AuditArchive {
	onceAuditArchive.Do(func() {
		auditArchiveInstance = &minioAuditArchive{
			Client: client,
			Bucket: driverConfig.Minio.BucketName,
			Log:    logger,
		}
	})
	return auditArchiveInstance
}

// ArchivePayload writes the raw callback body under a date-partitioned key.
// The payload fingerprint in the object name makes retried deliveries of the
// same body land on the same object instead of piling up copies.
func (a *minioAuditArchive) ArchivePayload(ctx context.Context, provider, transactionID string, payload []byte) error {
	objectName := fmt.Sprintf(
		"webhooks/%s/%s/%s-%s.json",
		time.Now().UTC().Format("2006-01-02"),
		provider,
		transactionID,
		utils.PayloadFingerprint(payload)[:16],
	)

	_, err := a.Client.PutObject(
		ctx,
		a.Bucket,
		objectName,
		bytes.NewReader(payload),
		int64(len(payload)),
		minio.PutObjectOptions{ContentType: constvars.MIMEApplicationJSON},
	)
	if err != nil {
		return exceptions.ErrMinioCreateObject(err, a.Bucket)
	}

	a.Log.Info("minioAuditArchive stored webhook payload",
		zap.String(constvars.LoggingProviderKey, provider),
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
		zap.String("object_name", objectName),
	)
	return nil
}
