package service_test

import (
	"testing"

	"github.com/tripnest/ms-go-session/app/service"
)

func TestHashToken(t *testing.T) {
	// sha256("abc") in hex.
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	if got := service.HashToken("abc"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if service.HashToken("abc") != service.HashToken("abc") {
		t.Fatal("expected hashing to be deterministic")
	}
	if service.HashToken("abc") == service.HashToken("abd") {
		t.Fatal("expected different inputs to hash differently")
	}
}
