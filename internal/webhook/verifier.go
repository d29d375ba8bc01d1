// Package webhook verifies inbound payment-processor callbacks signed per the
// Standard Webhooks convention: HMAC-SHA256 over "{id}.{timestamp}.{body}"
// with a base64-encoded shared secret, carried in a "v1,<base64>" signature
// header alongside id and timestamp headers.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names used by the payment processor.
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

// Tolerance bounds the replay window around the receiver's clock.
const Tolerance = 300 * time.Second

// secretPrefix is provider-specific and stripped if present before base64
// decoding the shared secret.
const secretPrefix = "polar_whs_"

var (
	ErrMissingHeader     = errors.New("required webhook header is missing")
	ErrInvalidTimestamp  = errors.New("webhook timestamp is not a unix epoch")
	ErrTimestampExpired  = errors.New("webhook timestamp outside allowed window")
	ErrInvalidSecret     = errors.New("webhook secret is not valid base64")
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// Headers is the ephemeral envelope presented once per inbound call.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// Verify decides whether rawBody was produced by the holder of secret and is
// inside the replay window at now. It fails closed: any absent header,
// malformed input, or timestamp drift yields a non-nil error and the caller
// must treat the event as unauthenticated. Verify performs no I/O.
func Verify(rawBody []byte, h Headers, secret string, now time.Time) error {
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return ErrMissingHeader
	}

	ts, err := strconv.ParseInt(h.Timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	drift := now.Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(Tolerance.Seconds()) {
		return ErrTimestampExpired
	}

	expected, err := Sign(h.ID, h.Timestamp, rawBody, secret)
	if err != nil {
		return err
	}

	// The header may hold multiple space-separated "version,signature" pairs
	// so that secrets can rotate without downtime. Any exact v1 match passes.
	for _, pair := range strings.Split(h.Signature, " ") {
		version, sig, ok := strings.Cut(pair, ",")
		if !ok {
			continue
		}
		if version == "v1" && hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign computes the v1 signature for the given envelope. It is exported so
// outbound integration tests can produce valid headers.
func Sign(id, timestamp string, body []byte, secret string) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func decodeSecret(secret string) ([]byte, error) {
	b64 := strings.TrimPrefix(secret, secretPrefix)
	key, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return key, nil
}
