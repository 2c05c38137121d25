package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	codePrefix  = "TBL"
	codeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateConfirmationCode builds a guest-facing reservation code of the form
// TBL-<epoch millis>-<6 random base36 chars>. The millisecond component makes
// collisions negligible; the unique index on confirmation_code is the
// backstop, not an active re-check.
func GenerateConfirmationCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in serious trouble; fall
		// back to a time-derived suffix so booking still works.
		return fmt.Sprintf("%s-%d-%06d", codePrefix, time.Now().UnixMilli(), time.Now().Nanosecond()%1000000)
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return fmt.Sprintf("%s-%d-%s", codePrefix, time.Now().UnixMilli(), string(buf))
}
