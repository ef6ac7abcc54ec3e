package service

import (
	"crypto/rand"
	"fmt"
	"html"
	"math/big"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const (
	otpDigits          = 6
	passwordDateLayout = "02012006"
	registrationPrefix = "RT"

	maxRegistrationSequence = 9999
)

var otpUpperBound = big.NewInt(1_000_000)

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// passwordFromDOB renders the date of birth as DDMMYYYY.
func passwordFromDOB(dob time.Time) string {
	return dob.Format(passwordDateLayout)
}

func registrationCounterName(at time.Time) string {
	return fmt.Sprintf("registration_%s", at.Format("06"))
}

// formatRegistrationID renders RT<YY><NNNN>. The suffix is fixed width, so a year
// is capped at maxRegistrationSequence admissions.
func formatRegistrationID(at time.Time, sequence int64) (string, error) {
	if sequence < 1 || sequence > maxRegistrationSequence {
		return "", fmt.Errorf("%w: sequence %d", ErrRegistrationCapacity, sequence)
	}
	return fmt.Sprintf("%s%s%04d", registrationPrefix, at.Format("06"), sequence), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newTextSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

// cleanText strips markup from free text and trims it; entities are decoded back to plain characters.
func cleanText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(strings.TrimSpace(value))))
}

func maskEmail(email string) string {
	email = normalizeEmail(email)
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := parts[0]
	domain := parts[1]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + domain
}
