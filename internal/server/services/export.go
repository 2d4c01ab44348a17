package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/samber/oops"

	sc "github.com/dmitrijs2005/vidkeeper/internal/server/config"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

const exportURLExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) error {
		_, err := c.PutObject(ctx, in, optFns...)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	now = time.Now
)

type videoLister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Video, error)
}

// ExportDocument is the JSON shape of an account export.
type ExportDocument struct {
	Account    ExportAccount `json:"account"`
	Videos     []ExportVideo `json:"videos"`
	ExportedAt time.Time     `json:"exported_at"`
}

type ExportAccount struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type ExportVideo struct {
	ID        int64     `json:"id"`
	Video     string    `json:"video"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportResult is either a presigned download URL or the document itself.
type ExportResult struct {
	URL      string
	Body     []byte
	Filename string
}

// ExportService renders an account and its videos as JSON and, when a
// bucket is configured, hands it out through object storage.
type ExportService struct {
	videos videoLister
	config *sc.Config
}

func NewExportService(videos videoLister, config *sc.Config) *ExportService {
	return &ExportService{videos: videos, config: config}
}

func GetRandomStorageKey() string {
	d := now()
	return fmt.Sprintf("exports/%d/%d/%d/%v.json", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Build assembles the export document of account.
func (s *ExportService) Build(ctx context.Context, account *models.Account) (*ExportDocument, error) {
	videos, err := s.videos.ListByOwner(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{
		Account: ExportAccount{
			ID:        account.ID,
			Username:  account.Username,
			Email:     account.Email,
			CreatedAt: account.CreatedAt,
		},
		Videos:     make([]ExportVideo, 0, len(videos)),
		ExportedAt: now().UTC(),
	}
	for _, v := range videos {
		doc.Videos = append(doc.Videos, ExportVideo{ID: v.ID, Video: v.Content, Confirmed: v.Confirmed, CreatedAt: v.CreatedAt})
	}

	return doc, nil
}

func (s *ExportService) Export(ctx context.Context, account *models.Account) (*ExportResult, error) {
	doc, err := s.Build(ctx, account)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, oops.Code("EXPORT_ENCODE_FAILED").With("account_id", account.ID).Wrap(err)
	}

	filename := fmt.Sprintf("vidkeeper-%s.json", account.Username)
	if !s.config.ExportsToS3() {
		return &ExportResult{Body: body, Filename: filename}, nil
	}

	url, err := s.upload(ctx, body)
	if err != nil {
		return nil, oops.Code("EXPORT_UPLOAD_FAILED").With("account_id", account.ID).Wrap(err)
	}

	return &ExportResult{URL: url, Filename: filename}, nil
}

func (s *ExportService) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return client, newS3PresignClient(client), nil
}

// upload stores body under a fresh key and returns a presigned GET URL.
func (s *ExportService) upload(ctx context.Context, body []byte) (string, error) {
	client, presignClient, err := s.getClients(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportURLExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
