package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateReference produces a booking reference combining the current date
// with random entropy, e.g. BK-20250301-A1B2C3D4E5. References are checked
// for prior existence before the write and backed by a unique index; on
// collision the orchestrator regenerates and retries.
func GenerateReference() (string, error) {
	randomBytes := make([]byte, 5)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

	return fmt.Sprintf("BK-%s-%s", time.Now().Format("20060102"), randomStr), nil
}
