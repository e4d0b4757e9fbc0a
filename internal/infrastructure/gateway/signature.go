package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "Stripe-Signature"

const DefaultTolerance = 300 * time.Second

var (
	ErrMissingSignatureHeader = errors.New("missing signature header")
	ErrInvalidSignatureHeader = errors.New("malformed signature header")
	ErrTimestampOutOfRange    = errors.New("signature timestamp outside tolerance")
	ErrNoMatchingSignature    = errors.New("no signature matches the payload")
)

// ComputeSignature returns the hex HMAC-SHA256 of "timestamp.payload".
func ComputeSignature(timestamp time.Time, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignHeader renders a signature header the way the Gateway sends it.
func SignHeader(timestamp time.Time, payload []byte, secret string) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), ComputeSignature(timestamp, payload, secret))
}

// VerifySignature checks header against payload and secret. A zero tolerance
// disables the timestamp check.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrMissingSignatureHeader
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		skew := now.Sub(timestamp)
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return ErrTimestampOutOfRange
		}
	}

	expected := []byte(ComputeSignature(timestamp, payload, secret))
	for _, sig := range signatures {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}

	return ErrNoMatchingSignature
}

func parseSignatureHeader(header string) (time.Time, []string, error) {
	var (
		timestamp  time.Time
		haveTime   bool
		signatures []string
	)

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return time.Time{}, nil, ErrInvalidSignatureHeader
			}
			timestamp = time.Unix(unix, 0)
			haveTime = true
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if !haveTime || len(signatures) == 0 {
		return time.Time{}, nil, ErrInvalidSignatureHeader
	}

	return timestamp, signatures, nil
}
