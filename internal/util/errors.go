package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrExtraction        = errors.New("extraction failed")
	ErrEmptyChunks       = errors.New("no valid text chunks generated")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
	ErrTrackingIO        = errors.New("tracking store io failed")
	ErrEmbedding         = errors.New("embedding failed")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
	ErrContextTooLong = errors.New("context too long")
)
