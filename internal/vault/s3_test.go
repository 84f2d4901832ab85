package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fo-go/internal/fo"
)

type fakeObject struct {
	data     []byte
	metadata map[string]string
}

// fakeS3 is an in-memory bucket speaking the subset of the S3 API the vault
// uses. Multipart uploads are not supported.
type fakeS3 struct {
	bucket  string
	mu      sync.Mutex
	objects map[string]fakeObject
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: make(map[string]fakeObject)}
}

func (f *fakeS3) checkBucket(b *string) error {
	if aws.ToString(b) != f.bucket {
		return &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	return nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	var data []byte
	if in.Body != nil {
		var err error
		if data, err = io.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}
	if in.ContentLength != nil && *in.ContentLength != int64(len(data)) {
		return nil, fmt.Errorf("content length %d does not match body of %d bytes", *in.ContentLength, len(data))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(obj.data)),
		Metadata: obj.metadata,
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	f.mu.Lock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if err := f.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Vault(t *testing.T) {
	testVaultContract(t, func(t *testing.T) fo.Vault {
		return newS3Vault("test", "catalogs", "fo", newFakeS3("catalogs"))
	})
}

func TestS3Vault_Keys(t *testing.T) {
	client := newFakeS3("catalogs")
	v := newS3Vault("test", "catalogs", "team/fo", client)

	if err := v.PutArchive("host-1", "catalog", strings.NewReader("data"), 4, 12); err != nil {
		t.Fatalf("PutArchive() error = %v", err)
	}

	obj, ok := client.objects["team/fo/archives/host-1/catalog.archive"]
	if !ok {
		t.Fatalf("object not stored under expected key; have %v", client.objects)
	}
	if obj.metadata[versionMetaKey] != "12" {
		t.Errorf("version metadata = %q, want 12", obj.metadata[versionMetaKey])
	}
}

func TestS3Vault_MissingVersionMetadata(t *testing.T) {
	client := newFakeS3("catalogs")
	v := newS3Vault("test", "catalogs", "", client)
	client.objects["archives/host-1/catalog.archive"] = fakeObject{data: []byte("x")}

	if _, err := v.ArchiveVersion("host-1", "catalog"); err == nil {
		t.Error("ArchiveVersion() expected error for object without version metadata")
	}
}

func TestS3Vault_SizeMismatch(t *testing.T) {
	v := newS3Vault("test", "catalogs", "", newFakeS3("catalogs"))

	if err := v.PutArchive("host-1", "catalog", strings.NewReader("hello"), 100, 1); err == nil {
		t.Error("PutArchive() expected error for size mismatch")
	}
}

func TestS3Vault_ValidateSetup_WrongBucket(t *testing.T) {
	v := newS3Vault("test", "missing", "", newFakeS3("catalogs"))

	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", &types.NotFound{}, true},
		{"no such key wrapped", fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
