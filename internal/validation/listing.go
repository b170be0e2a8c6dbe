package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"realestate/internal/models"
)

const (
	MaxTitleLength    = 200
	MaxAddressLength  = 300
	MaxFeatures       = 50
	MaxFeatureLength  = 60
	MaxImageURLLength = 1000
)

// Errors collects per-field messages and converts them to a validation error.
type Errors map[string]string

// Check records err under field when it is non-nil. Only the first failure of
// a field is kept.
func (e Errors) Check(field string, err error) {
	if err == nil {
		return
	}
	if _, exists := e[field]; !exists {
		e[field] = err.Error()
	}
}

// Add records a message under field.
func (e Errors) Add(field, message string) {
	e.Check(field, fmt.Errorf("%s", message))
}

// Err returns nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return models.NewFieldValidationError(map[string]string(e))
}

// ValidateMessage checks an inquiry message.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}
	if utf8.RuneCountInString(message) > models.MaxInquiryMessageLength {
		return fmt.Errorf("message must not exceed %d characters", models.MaxInquiryMessageLength)
	}
	return nil
}

// ValidateTitle checks a listing title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateAddress checks a listing address.
func ValidateAddress(address string) error {
	if utf8.RuneCountInString(address) > MaxAddressLength {
		return fmt.Errorf("address must not exceed %d characters", MaxAddressLength)
	}
	return nil
}

// ValidateFeatures bounds the free-form feature tags of a listing.
func ValidateFeatures(features []string) error {
	if len(features) > MaxFeatures {
		return fmt.Errorf("at most %d features are allowed", MaxFeatures)
	}
	for _, f := range features {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("features cannot be blank")
		}
		if utf8.RuneCountInString(f) > MaxFeatureLength {
			return fmt.Errorf("feature %q exceeds %d characters", f, MaxFeatureLength)
		}
	}
	return nil
}

// ValidateImageURL accepts absolute http(s) URLs and root-relative paths.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	if len(raw) > MaxImageURLLength {
		return fmt.Errorf("url must not exceed %d characters", MaxImageURLLength)
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL or a root-relative path")
	}
	return nil
}
