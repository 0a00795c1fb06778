// Package refnum generates human-facing reference numbers such as order
// numbers and application references.
package refnum

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// Order formats ORD-<last 8 digits of unix millis>-<1000..9998>.
func Order(now time.Time) string {
	return New("ORD", now, 8, 1000, 9999)
}

// Credit formats BOC-<last 6 digits of unix millis>-<100..998>.
func Credit(now time.Time) string {
	return New("BOC", now, 6, 100, 999)
}

// New formats <prefix>-<last n digits of unix millis>-<random in [lo, hi)>.
func New(prefix string, now time.Time, digits int, lo, hi int64) string {
	return fmt.Sprintf("%s-%s-%d", prefix, lastDigits(now.UnixMilli(), digits), randomBetween(lo, hi))
}

func lastDigits(v int64, n int) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func randomBetween(lo, hi int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo))
	if err != nil {
		return lo
	}
	return lo + n.Int64()
}
