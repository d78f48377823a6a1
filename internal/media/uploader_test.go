package media

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewUploaderRequiresBucket(t *testing.T) {
	if _, err := NewUploader(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestNewUploaderDefaultsPublicBaseURL(t *testing.T) {
	uploader, err := NewUploader(context.Background(), Config{
		Region:    "eu-west-1",
		Bucket:    "clipstack-media",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if uploader.publicBaseURL != "https://clipstack-media.s3.eu-west-1.amazonaws.com" {
		t.Fatalf("unexpected default base url %q", uploader.publicBaseURL)
	}
}

func TestNewUploaderTrimsTrailingSlashOnBaseURL(t *testing.T) {
	uploader, err := NewUploader(context.Background(), Config{
		Region:        "us-east-1",
		Bucket:        "clipstack-media",
		AccessKey:     "test",
		SecretKey:     "test",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if uploader.publicBaseURL != "https://cdn.example.com" {
		t.Fatalf("unexpected base url %q", uploader.publicBaseURL)
	}
}

func TestStorageKeysAreDatePartitionedAndUnique(t *testing.T) {
	uploader, err := NewUploader(context.Background(), Config{
		Region:    "us-east-1",
		Bucket:    "clipstack-media",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	uploader.clock = func() time.Time {
		return time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	}

	first := uploader.storageKey()
	second := uploader.storageKey()
	if !strings.HasPrefix(first, "uploads/2026/03/07/") {
		t.Fatalf("unexpected key prefix %q", first)
	}
	if first == second {
		t.Fatalf("expected unique keys per upload")
	}
}
