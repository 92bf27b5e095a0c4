package service

import (
	"techstore/internal/models"
)

// Receipt verification limits, matching what the storefront accepted.
const maxReceiptSizeBytes = 10 * 1024 * 1024

var allowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// VerifyReceipt runs the simulated verification for bank-transfer receipts:
// the upload must be an image or PDF and no larger than 10MB. A real
// implementation would hand the file to a verification backend.
func VerifyReceipt(receipt *models.Receipt) error {
	if receipt == nil {
		return models.ErrReceiptRequired
	}
	if !allowedReceiptTypes[receipt.ContentType] {
		return models.ErrReceiptUnverified
	}
	if receipt.SizeBytes <= 0 || receipt.SizeBytes > maxReceiptSizeBytes {
		return models.ErrReceiptUnverified
	}
	return nil
}
