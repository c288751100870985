package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectAPI is the subset of *s3.Client the blob recorder uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Blob stores each record as a JSON object in an S3-compatible bucket (R2).
type Blob struct {
	Client ObjectAPI
	Bucket string
	Prefix string
	// Kinds restricts which record kinds are written; empty means all.
	Kinds map[string]bool
}

// BlobEntry describes one stored object.
type BlobEntry struct {
	Name         string    `json:"name"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
}

func (b *Blob) Append(ctx context.Context, rec Record) error {
	if len(b.Kinds) > 0 && !b.Kinds[rec.Kind] {
		return nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	key := b.key(objectName(rec))
	_, err = b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// List returns stored objects, newest first.
func (b *Blob) List(ctx context.Context) ([]BlobEntry, error) {
	var entries []BlobEntry
	var token *string
	for {
		out, err := b.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.Bucket),
			Prefix:            aws.String(b.key("")),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range out.Contents {
			entries = append(entries, BlobEntry{
				Name:         path.Base(aws.ToString(obj.Key)),
				LastModified: aws.ToTime(obj.LastModified),
				Size:         aws.ToInt64(obj.Size),
			})
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastModified.After(entries[j].LastModified)
	})
	return entries, nil
}

// Get loads one record by object name as returned from List.
func (b *Blob) Get(ctx context.Context, name string) (Record, error) {
	if name == "" || strings.Contains(name, "/") {
		return Record{}, ErrNotFound
	}
	out, err := b.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(b.key(name)),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read object body: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode object %s: %w", name, err)
	}
	return rec, nil
}

func (b *Blob) key(name string) string {
	prefix := strings.Trim(b.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func objectName(rec Record) string {
	return fmt.Sprintf("%s-%s-%s.json",
		strings.ReplaceAll(rec.Kind, "_", "-"),
		rec.CreatedAt.UTC().Format("20060102-150405"),
		rec.ID.String()[:8],
	)
}
