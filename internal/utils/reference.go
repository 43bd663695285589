package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateBookingReference returns DP-YYYYMMDD-XXXX where the date is
// now in UTC and XXXX is drawn from [A-Z0-9].  Values are not
// guaranteed unique; callers retry on a duplicate key.
func GenerateBookingReference(now time.Time) (string, error) {
	suffix, err := randomAlphanumeric(4)
	if err != nil {
		return "", err
	}
	return "DP-" + now.UTC().Format("20060102") + "-" + suffix, nil
}

// GenerateTransactionReference returns MOCK-YYYYMMDDHHMMSS-XXXXXX for
// transactions created by the mock gateway.
func GenerateTransactionReference(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MOCK-" + now.UTC().Format("20060102150405") + "-" + strings.ToUpper(id[:6])
}

func randomAlphanumeric(n int) (string, error) {
	max := big.NewInt(int64(len(referenceAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(referenceAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
