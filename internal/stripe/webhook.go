package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a webhook timestamp may drift before the
// signature is rejected.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrInvalidSignature is returned when no signature in the header
	// matches the payload.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrExpiredSignature is returned when the signed timestamp is outside
	// the tolerance window.
	ErrExpiredSignature = errors.New("webhook timestamp outside tolerance")
)

// Event is a webhook event envelope. Data.Raw holds the event object for the
// receiver to unmarshal into the shape it expects.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Raw json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSessionEvent is the object of checkout.session.completed.
type CheckoutSessionEvent struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// InvoiceEvent is the object of invoice.payment_succeeded/_failed.
type InvoiceEvent struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	AmountPaid   int64  `json:"amount_paid"`
	Subscription string `json:"subscription"`
	Lines        struct {
		Data []struct {
			Period struct {
				End int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

// SubscriptionEvent is the object of customer.subscription.deleted.
type SubscriptionEvent struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// ConstructEvent verifies the Stripe-Signature header against the raw
// payload and parses the event. The header carries a timestamp and one or
// more v1 signatures: HMAC-SHA256 of "<timestamp>.<payload>" keyed by the
// endpoint secret.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if tolerance > 0 {
		ts := time.Unix(timestamp, 0)
		if d := time.Since(ts); d > tolerance || d < -tolerance {
			return nil, ErrExpiredSignature
		}
	}

	expected := computeSignature(timestamp, payload, secret)
	valid := false
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	return &event, nil
}

// ParseEvent decodes a payload without signature verification. Used when no
// endpoint secret is configured.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	return &event, nil
}

// SignPayload produces a Stripe-Signature header value for the payload.
// Exposed for tests and local stubs.
func SignPayload(payload []byte, secret string, at time.Time) string {
	timestamp := at.Unix()
	sig := computeSignature(timestamp, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}

	var timestamp int64 = -1
	var signatures [][]byte

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}
