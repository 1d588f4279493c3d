package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"labelpro/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store keeps one JSON object per template at <user id>/<template id>.
type Store struct {
	client Client
	bucket string
}

// NewStore builds a store from the default AWS credential chain.
func NewStore(ctx context.Context, bucketName string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

func NewStoreWithClient(client Client, bucketName string) *Store {
	return &Store{client: client, bucket: bucketName}
}

func templateKey(userID, id string) (string, error) {
	if path.Base(id) != id || id == "" || id == "." || id == ".." {
		return "", core.NewValidationError("id", "must be a plain name")
	}
	return path.Join(userID, id), nil
}

func isMissing(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *Store) read(ctx context.Context, key string) (*core.TemplateRecord, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read template data: %w", err)
	}
	var record core.TemplateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal template data: %w", err)
	}
	return &record, nil
}

func (s *Store) List(ctx context.Context, userID string) ([]*core.TemplateRecord, error) {
	log := logrus.WithField("user_id", userID)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(userID + "/"),
	})

	records := []*core.TemplateRecord{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to list templates")
			return nil, fmt.Errorf("list templates for user %s: %w", userID, err)
		}
		for _, object := range page.Contents {
			record, err := s.read(ctx, aws.ToString(object.Key))
			if err != nil {
				log.WithError(err).Warnf("Failed to read template %s, skipping", aws.ToString(object.Key))
				continue
			}
			record.UserID = userID
			record.Data = nil
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	log.Infof("Listed %d templates", len(records))
	return records, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (*core.TemplateRecord, error) {
	key, err := templateKey(userID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})

	record, err := s.read(ctx, key)
	if err != nil {
		if isMissing(err) {
			log.Warn("Template not found for user")
			return nil, fmt.Errorf("template %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to get template")
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	record.UserID = userID
	log.Info("Template retrieved successfully")
	return record, nil
}

func (s *Store) Save(ctx context.Context, record *core.TemplateRecord) error {
	key, err := templateKey(record.UserID, record.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{
		"user_id":     record.UserID,
		"template_id": record.ID,
		"data_length": len(record.Data),
	})

	now := time.Now()
	record.CreatedAt = now
	if existing, err := s.Get(ctx, record.UserID, record.ID); err == nil {
		record.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	record.UpdatedAt = now

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.WithError(err).Error("Failed to save template")
		return fmt.Errorf("save template %s: %w", record.ID, err)
	}
	log.Info("Template saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	key, err := templateKey(userID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissing(err) {
			log.Warn("Template not found for deletion")
			return fmt.Errorf("template %s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("delete template %s: %w", id, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.WithError(err).Error("Failed to delete template")
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	log.Info("Template deleted successfully")
	return nil
}
