package service

import (
	"testing"

	"techstore/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestVerifyReceipt(t *testing.T) {
	tests := []struct {
		name    string
		receipt *models.Receipt
		wantErr error
	}{
		{
			name:    "missing",
			receipt: nil,
			wantErr: models.ErrReceiptRequired,
		},
		{
			name:    "pdf accepted",
			receipt: &models.Receipt{FileName: "transfer.pdf", ContentType: "application/pdf", SizeBytes: 120_000},
			wantErr: nil,
		},
		{
			name:    "jpeg accepted",
			receipt: &models.Receipt{FileName: "transfer.jpg", ContentType: "image/jpeg", SizeBytes: 800_000},
			wantErr: nil,
		},
		{
			name:    "wrong type",
			receipt: &models.Receipt{FileName: "transfer.zip", ContentType: "application/zip", SizeBytes: 1000},
			wantErr: models.ErrReceiptUnverified,
		},
		{
			name:    "too large",
			receipt: &models.Receipt{FileName: "scan.png", ContentType: "image/png", SizeBytes: 11 * 1024 * 1024},
			wantErr: models.ErrReceiptUnverified,
		},
		{
			name:    "empty file",
			receipt: &models.Receipt{FileName: "scan.png", ContentType: "image/png", SizeBytes: 0},
			wantErr: models.ErrReceiptUnverified,
		},
		{
			name:    "exactly at limit",
			receipt: &models.Receipt{FileName: "scan.png", ContentType: "image/png", SizeBytes: 10 * 1024 * 1024},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyReceipt(tt.receipt)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
