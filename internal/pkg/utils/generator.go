package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateOrderNumber produces the human-facing order identifier, e.g.
// MLB-20240131-4F7K2Q.
func GenerateOrderNumber(now time.Time) string {
	const suffixChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	max := big.NewInt(int64(len(suffixChars)))

	suffix := make([]byte, 6)
	for i := range suffix {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for id generation;
			// fall back to a uuid-derived suffix.
			return fmt.Sprintf("MLB-%s-%s", now.Format("20060102"), uuid.New().String()[:6])
		}
		suffix[i] = suffixChars[num.Int64()]
	}
	return fmt.Sprintf("MLB-%s-%s", now.Format("20060102"), string(suffix))
}

// GeneratePayoutRef produces the partner-side payout reference submitted to
// the provider and stored under a unique index.
func GeneratePayoutRef() string {
	return fmt.Sprintf("WDR-%s", uuid.New().String())
}

// PayloadFingerprint hashes a raw webhook body for audit-archive object keys.
func PayloadFingerprint(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
