package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAsset     = errors.New("invalid asset")
	ErrSourceTooLarge   = errors.New("source exceeds size limit")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
