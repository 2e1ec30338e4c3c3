package tokenstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopnotify/backend/internal/infrastructure/config"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func forObject(bucket, key string) interface{} {
	return mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == bucket && *in.Key == key
	})
}

func TestS3Store_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("reads tokens", func(t *testing.T) {
		api := new(MockObjectAPI)
		api.On("GetObject", ctx, forObject("push", "tokens.json")).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`[{"expoPushToken":"ExponentPushToken[x]"}]`)),
		}, nil)

		tokens, err := newS3Store(api, "push", "tokens.json", nil).Load(ctx)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, "ExponentPushToken[x]", tokens[0].ExpoPushToken)
		api.AssertExpectations(t)
	})

	t.Run("missing object is empty", func(t *testing.T) {
		api := new(MockObjectAPI)
		api.On("GetObject", ctx, mock.Anything).Return(nil, &types.NoSuchKey{})

		tokens, err := newS3Store(api, "push", "tokens.json", nil).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	})

	t.Run("transport failure", func(t *testing.T) {
		api := new(MockObjectAPI)
		api.On("GetObject", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := newS3Store(api, "push", "tokens.json", nil).Load(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://push/tokens.json")
	})

	t.Run("malformed object", func(t *testing.T) {
		api := new(MockObjectAPI)
		api.On("GetObject", ctx, mock.Anything).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader(`not json`)),
		}, nil)

		_, err := newS3Store(api, "push", "tokens.json", nil).Load(ctx)
		assert.ErrorIs(t, err, ErrMalformedData)
	})
}

func TestS3Store_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads json array", func(t *testing.T) {
		api := new(MockObjectAPI)
		var uploaded string
		api.On("PutObject", ctx, mock.Anything).Run(func(args mock.Arguments) {
			in := args.Get(1).(*s3.PutObjectInput)
			body, _ := io.ReadAll(in.Body)
			uploaded = string(body)
			assert.Equal(t, "application/json", *in.ContentType)
		}).Return(&s3.PutObjectOutput{}, nil)

		err := newS3Store(api, "push", "tokens.json", nil).Save(ctx, sampleTokens())
		require.NoError(t, err)

		decoded, err := decodeTokens([]byte(uploaded))
		require.NoError(t, err)
		assert.Equal(t, sampleTokens(), decoded)
	})

	t.Run("upload failure", func(t *testing.T) {
		api := new(MockObjectAPI)
		api.On("PutObject", ctx, mock.Anything).Return(nil, errors.New("access denied"))

		err := newS3Store(api, "push", "tokens.json", nil).Save(ctx, sampleTokens())
		assert.Error(t, err)
	})
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.S3StoreConfig{Key: "tokens.json"}, nil)
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3Store(context.Background(), config.S3StoreConfig{Bucket: "push"}, nil)
	assert.ErrorContains(t, err, "key is required")
}

func TestNewS3Store_StaticCredentials(t *testing.T) {
	store, err := NewS3Store(context.Background(), config.S3StoreConfig{
		Bucket:          "push",
		Key:             "tokens.json",
		Region:          "us-east-1",
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		UsePathStyle:    true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "push", store.bucket)
}
