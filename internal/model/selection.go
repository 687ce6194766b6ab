package model

import (
	"regexp"
	"time"
)

// MaxPlatforms caps how many platforms one comparison run may target.
const MaxPlatforms = 4

var pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidPincode reports whether p is a six-digit Indian postal pincode
// with a non-zero first digit.
func ValidPincode(p string) bool {
	return pincodeRe.MatchString(p)
}

// SelectionRequest captures one comparison run's inputs. It is written once
// per run and never mutated; a new run supersedes the previous one.
type SelectionRequest struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Pincode     string    `json:"pincode"`
	PlatformIDs []string  `json:"platform_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
