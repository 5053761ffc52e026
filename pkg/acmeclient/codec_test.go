package acmeclient

import (
	"context"
	"testing"
)

func TestMarshalUnmarshalAccountRoundTrips(t *testing.T) {
	fake := NewFake()
	acc, err := fake.Register(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	data, err := MarshalAccount(acc)
	if err != nil {
		t.Fatalf("MarshalAccount: %v", err)
	}

	got, err := UnmarshalAccount(data)
	if err != nil {
		t.Fatalf("UnmarshalAccount: %v", err)
	}
	if got.Email != acc.Email {
		t.Errorf("Email = %q, want %q", got.Email, acc.Email)
	}
	if got.Key == nil {
		t.Error("UnmarshalAccount() returned a nil key")
	}
}

func TestUnmarshalAccountRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalAccount([]byte("not json")); err == nil {
		t.Fatal("UnmarshalAccount(garbage) = nil error, want error")
	}
}
