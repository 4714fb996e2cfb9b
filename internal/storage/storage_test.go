package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"Next_Express/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("secret", "http://localhost:8000")
	payload := []byte{0x00, 0x01, 0xfe, 0xff, 'h', 'i'}

	require.NoError(t, store.PutObject(ctx, "local", "files/a", bytes.NewReader(payload), int64(len(payload)), PutOptions{ContentType: "application/octet-stream"}))

	body, info, err := store.GetObject(ctx, "local", "files/a")
	require.NoError(t, err)
	defer body.Close()
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, "application/octet-stream", info.ContentType)

	require.NoError(t, store.RemoveObject(ctx, "local", "files/a"))
	_, _, err = store.GetObject(ctx, "local", "files/a")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreRejectsShortUpload(t *testing.T) {
	store := NewMemoryStore("secret", "http://localhost:8000")
	err := store.PutObject(context.Background(), "local", "files/a", strings.NewReader("abc"), 10, PutOptions{})
	assert.Error(t, err)
}

func TestMemoryStorePresignedLinkResolves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("secret", "http://localhost:8000")

	link, err := store.PresignedGetObject(ctx, "local", "files/x-report.pdf", time.Hour)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://localhost:8000/blobs?token="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	bucket, key, err := store.Resolve(parsed.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "local", bucket)
	assert.Equal(t, "files/x-report.pdf", key)

	other := NewMemoryStore("another-secret", "http://localhost:8000")
	_, _, err = other.Resolve(parsed.Query().Get("token"))
	assert.Error(t, err)
}

func TestMemoryStoreExpiredLink(t *testing.T) {
	store := NewMemoryStore("secret", "http://localhost:8000")
	link, err := store.PresignedGetObject(context.Background(), "local", "files/a", -time.Minute)
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	_, _, err = store.Resolve(parsed.Query().Get("token"))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	k1 := FileKey("my report (final).pdf")
	k2 := FileKey("my report (final).pdf")
	assert.True(t, strings.HasPrefix(k1, "files/"))
	assert.True(t, strings.HasSuffix(k1, "-my_report__final_.pdf"))
	assert.NotEqual(t, k1, k2)

	pic := ProfilePictureKey("Avatar.PNG")
	assert.True(t, strings.HasPrefix(pic, "profile-pictures/"))
	assert.True(t, strings.HasSuffix(pic, ".png"))
	assert.True(t, strings.HasSuffix(ProfilePictureKey("noext"), ".bin"))

	assert.True(t, IsPublicKey(pic))
	assert.False(t, IsPublicKey(k1))
	assert.False(t, IsPublicKey("profile-pictures/../files/x"))
}

func TestInstrumentedStoreCountsOperations(t *testing.T) {
	ctx := context.Background()
	reg := metrics.New()
	store := Instrument(NewMemoryStore("secret", "http://localhost:8000"), reg)

	require.NoError(t, store.PutObject(ctx, "b", "k", strings.NewReader("x"), 1, PutOptions{}))
	_, _, err := store.GetObject(ctx, "b", "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StoreOps.WithLabelValues("put", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StoreOps.WithLabelValues("get", "error")))

	resolver, ok := AsResolver(store)
	require.True(t, ok)
	assert.NotNil(t, resolver)
}

type fakeS3 struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return nil, errors.New("forbidden")
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + aws.ToString(params.Key)}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{}}
	presigner := &fakePresigner{}
	store := NewS3Store(client, presigner, "eu-west-1")

	require.NoError(t, store.PutObject(ctx, "bkt", "files/a b", strings.NewReader("hello"), 5, PutOptions{}))
	body, info, err := store.GetObject(ctx, "bkt", "files/a b")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)

	_, _, err = store.GetObject(ctx, "bkt", "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	link, err := store.PresignedGetObject(ctx, "bkt", "files/a b", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/files/a b", link)
	assert.Equal(t, time.Hour, presigner.expires)

	assert.Equal(t, "https://bkt.s3.eu-west-1.amazonaws.com/files/a%20b", store.ObjectURL("bkt", "files/a b"))
	assert.Error(t, store.Ping(ctx, "bkt"))

	require.NoError(t, store.RemoveObject(ctx, "bkt", "files/a b"))
	assert.Equal(t, []string{"files/a b"}, client.deleted)
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(&types.NoSuchKey{}))
	assert.True(t, isS3NotFound(fmt.Errorf("get: %w", &smithy.GenericAPIError{Code: "NotFound"})))
	assert.True(t, isS3NotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isS3NotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isS3NotFound(errors.New("dial tcp: refused")))
}
