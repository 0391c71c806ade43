package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"quest-go/internal/apitypes"
	"quest-go/internal/config"
)

// s3API 是 S3StorageService 用到的客户端方法，便于测试替换。
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3StorageService 把附件保存到 S3 或兼容 S3 的对象存储 (例如 MinIO)。
type S3StorageService struct {
	client    s3API
	bucket    string
	prefix    string
	publicURL string
}

// NewS3StorageService 根据配置创建 S3 客户端。
// 配置了 Endpoint 时使用 path-style 访问，以兼容 MinIO。
func NewS3StorageService(cfg config.S3Config) (apitypes.StorageService, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("S3 bucket 未配置")
	}

	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "quest-go-config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return newS3StorageService(s3.New(opts), cfg), nil
}

func newS3StorageService(client s3API, cfg config.S3Config) *S3StorageService {
	publicURL := cfg.PublicBaseURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.BucketName
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
		}
	}
	return &S3StorageService{
		client:    client,
		bucket:    cfg.BucketName,
		prefix:    cfg.KeyPrefix,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// UploadFile 以流的方式写入对象，ContentLength 使用表单中声明的大小。
func (s *S3StorageService) UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*apitypes.FileInfo, error) {
	key := s.prefix + storedName(fileName, mimeType)

	// SDK 对不可 seek 的 body 需要 TLS + trailing checksum，这里统一转成可 seek 的读取器
	body, ok := reader.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(io.LimitReader(reader, fileSize+1))
		if err != nil {
			return nil, fmt.Errorf("读取上传内容失败: %w", err)
		}
		if int64(len(data)) != fileSize {
			return nil, fmt.Errorf("文件大小不匹配: 预期 %d, 实际 %d", fileSize, len(data))
		}
		body = bytes.NewReader(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(fileSize),
		ContentType:   aws.String(mimeType),
		Metadata: map[string]string{
			"original-filename": url.QueryEscape(fileName),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("上传到 S3 失败 (key=%s): %w", key, err)
	}

	return &apitypes.FileInfo{
		URL:      s.publicURL + "/" + key,
		Path:     key,
		Size:     fileSize,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// DeleteFile 删除对象。对象不存在不算错误。
func (s *S3StorageService) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil
		}
		return fmt.Errorf("从 S3 删除对象失败 (key=%s): %w", key, err)
	}
	return nil
}
