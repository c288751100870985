package recorder

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedObject struct {
	body     []byte
	modified time.Time
}

// fakeBucket is an in-memory ObjectAPI that pages listings two keys at a time.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]storedObject
	clock   time.Time
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string]storedObject{}, clock: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	f.objects[aws.ToString(in.Key)] = storedObject{body: body, modified: f.clock}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.body))}, nil
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if start := aws.ToString(in.ContinuationToken); start != "" {
		i := sort.SearchStrings(keys, start)
		keys = keys[i:]
	}
	out := &s3.ListObjectsV2Output{}
	if len(keys) > 2 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[2])
		keys = keys[:2]
	}
	for _, k := range keys {
		obj := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			LastModified: aws.Time(obj.modified),
			Size:         aws.Int64(int64(len(obj.body))),
		})
	}
	return out, nil
}

func TestBlobAppendListGet(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	b := &Blob{Client: bucket, Bucket: "history", Prefix: "/qa-history/", Kinds: map[string]bool{KindQASession: true}}

	var last Record
	for i := 0; i < 3; i++ {
		rec := NewRecord(KindQASession, "req", map[string]any{"n": float64(i)})
		require.NoError(t, b.Append(ctx, *rec))
		last = *rec
	}
	require.NoError(t, b.Append(ctx, *NewRecord(KindMatch, "", nil)))
	assert.Len(t, bucket.objects, 3, "kinds outside the filter are skipped")

	entries, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, strings.HasPrefix(entries[0].Name, "qa-session-"))
	assert.False(t, entries[0].LastModified.Before(entries[1].LastModified))

	got, err := b.Get(ctx, objectName(last))
	require.NoError(t, err)
	assert.Equal(t, last.ID, got.ID)
	assert.Equal(t, float64(2), got.Payload["n"])
}

func TestBlobGetMissing(t *testing.T) {
	b := &Blob{Client: newFakeBucket(), Bucket: "history"}
	_, err := b.Get(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.Get(context.Background(), "../secrets/x.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectName(t *testing.T) {
	rec := NewRecord(KindCallAnalysis, "", nil)
	rec.CreatedAt = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	name := objectName(*rec)
	assert.Equal(t, "call-analysis-20250203-040506-"+rec.ID.String()[:8]+".json", name)
}
