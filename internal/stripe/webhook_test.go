package stripe

import (
	"errors"
	"testing"
	"time"
)

func TestConstructEvent_ValidSignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","amount_paid":500}}}`)
	secret := "whsec_abc"
	header := SignPayload(payload, secret, time.Now())

	event, err := ConstructEvent(payload, header, secret, DefaultTolerance)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if event.ID != "evt_1" {
		t.Errorf("expected event id evt_1, got %s", event.ID)
	}
	if event.Type != "invoice.payment_succeeded" {
		t.Errorf("expected invoice.payment_succeeded, got %s", event.Type)
	}
	if len(event.Data.Raw) == 0 {
		t.Error("expected raw event object")
	}
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	header := SignPayload(payload, "whsec_abc", time.Now())

	_, err := ConstructEvent(payload, header, "whsec_other", DefaultTolerance)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got: %v", err)
	}
}

func TestConstructEvent_ExpiredTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	secret := "whsec_abc"
	header := SignPayload(payload, secret, time.Now().Add(-time.Hour))

	_, err := ConstructEvent(payload, header, secret, DefaultTolerance)
	if !errors.Is(err, ErrExpiredSignature) {
		t.Fatalf("expected ErrExpiredSignature, got: %v", err)
	}
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)

	testCases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"no signature", "t=12345"},
		{"no timestamp", "v1=deadbeef"},
		{"garbage timestamp", "t=abc,v1=deadbeef"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ConstructEvent(payload, tc.header, "whsec_abc", DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("expected ErrInvalidSignature, got: %v", err)
			}
		})
	}
}

func TestConstructEvent_MultipleSignatures(t *testing.T) {
	t.Parallel()

	// Rotation periods produce headers with several v1 entries; one valid
	// signature is enough.
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	secret := "whsec_abc"
	header := SignPayload(payload, secret, time.Now()) + ",v1=deadbeef"

	if _, err := ConstructEvent(payload, header, secret, DefaultTolerance); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestParseEvent_NoVerification(t *testing.T) {
	t.Parallel()

	event, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if event.Type != "checkout.session.completed" {
		t.Errorf("expected checkout.session.completed, got %s", event.Type)
	}
}

func TestParseEvent_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
