// Package storage provides object storage for transaction receipts.
package storage

import (
	"context"
	"errors"
	"time"

	ledgerapp "github.com/moneta/backend/internal/application/ledger"
)

// StubReceiptStorage is a placeholder implementation of ReceiptStorage.
// Use this for development until a real storage backend is configured.
type StubReceiptStorage struct {
	// BaseURL is the base URL for generated upload/download URLs
	BaseURL string
}

// NewStubReceiptStorage creates a new StubReceiptStorage
func NewStubReceiptStorage() *StubReceiptStorage {
	return &StubReceiptStorage{
		BaseURL: "https://storage.example.com",
	}
}

// Ensure StubReceiptStorage implements ReceiptStorage
var _ ledgerapp.ReceiptStorage = (*StubReceiptStorage)(nil)

// GenerateUploadURL generates a stub presigned URL for uploading a receipt
func (s *StubReceiptStorage) GenerateUploadURL(
	ctx context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// GenerateDownloadURL generates a stub presigned URL for downloading a receipt
func (s *StubReceiptStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// DeleteObject is a no-op stub that always succeeds
func (s *StubReceiptStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// ObjectExists always returns true so the confirmation flow works during
// development.
func (s *StubReceiptStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	return true, nil
}
