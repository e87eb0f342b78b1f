// Package archive uploads finished interview transcripts to S3-compatible
// storage. Archiving is optional; an unconfigured archiver skips uploads.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

// uploadTimeout bounds a single archive upload.
const uploadTimeout = 30 * time.Second

// Config holds S3-compatible storage settings for transcript archiving.
type Config struct {
	Endpoint        string `json:"endpoint,omitempty"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Prefix          string `json:"prefix,omitempty"`
}

// IsConfigured reports whether archiving is set up.
func (c *Config) IsConfigured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Record is the archived document for one interview attempt.
type Record struct {
	SessionID  string                `json:"session_id"`
	Params     types.InterviewParams `json:"params"`
	Turns      []types.Turn          `json:"turns"`
	Violations []types.Violation     `json:"violations"`
	EndedAt    time.Time             `json:"ended_at"`
}

// objectStore is the slice of the S3 API the archiver uses.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Archiver writes interview records to the configured bucket.
type Archiver struct {
	cfg    Config
	client objectStore
}

// newS3Client creates an S3 client for the configured storage.
func newS3Client(cfg Config) *s3.Client {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"",
	)

	options := []func(*s3.Options){
		func(o *s3.Options) {
			o.Credentials = creds
			o.Region = "auto"
		},
	}

	if cfg.Endpoint != "" {
		options = append(options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.New(s3.Options{}, options...)
}

// New creates an archiver. Returns nil when archiving is not configured;
// callers treat a nil archiver as "skip".
func New(cfg Config) *Archiver {
	if !cfg.IsConfigured() {
		return nil
	}
	return &Archiver{cfg: cfg, client: newS3Client(cfg)}
}

// objectKey builds the bucket key for a record.
func (a *Archiver) objectKey(rec *Record) string {
	key := fmt.Sprintf("%s-%d.json", rec.SessionID, rec.EndedAt.Unix())
	if a.cfg.Prefix != "" {
		key = a.cfg.Prefix + "/" + key
	}
	return key
}

// Store uploads one interview record.
func (a *Archiver) Store(ctx context.Context, rec *Record) error {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return util.WrapError("marshal interview record", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := a.objectKey(rec)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return util.WrapError("upload interview record", err)
	}

	slog.Info("interview record archived", "key", key, "bytes", len(body))
	return nil
}

// TestConnection verifies bucket access by uploading and deleting a probe
// object.
func (a *Archiver) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	testKey := fmt.Sprintf("test-connection-%d.txt", time.Now().UnixNano())
	testContent := []byte("interview console connection test")

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(testKey),
		Body:          bytes.NewReader(testContent),
		ContentLength: aws.Int64(int64(len(testContent))),
	})
	if err != nil {
		return util.WrapError("upload test file", err)
	}

	_, err = a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(testKey),
	})
	if err != nil {
		slog.Warn("failed to delete test file", "key", testKey, "error", err)
	}

	return nil
}
