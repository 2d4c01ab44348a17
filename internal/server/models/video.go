package models

import (
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
)

// Video is a short link posted by its owner.
type Video struct {
	ID        int64
	Content   string
	Confirmed bool
	OwnerID   int64
	CreatedAt time.Time
}

// ValidateVideoContent checks the content length limits, counted in runes.
func ValidateVideoContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < common.MinVideoContentLength || n > common.MaxVideoContentLength {
		return common.ErrorInvalidVideoContent
	}
	return nil
}

// Validate reports whether v may be persisted.
func (v *Video) Validate() error {
	if !v.Confirmed {
		return common.ErrorVideoNotConfirmed
	}
	return ValidateVideoContent(v.Content)
}
