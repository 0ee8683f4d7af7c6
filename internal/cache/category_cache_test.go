package cache

import (
	"context"
	"testing"

	"github.com/blues/fundmagic/internal/config"
)

func TestNewClientDisabled(t *testing.T) {
	rdb, err := NewClient(context.Background(), config.RedisConfig{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if rdb != nil {
		t.Fatal("expected nil client when no address is configured")
	}
}

func TestNewClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rdb, err := NewClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		rdb.Close()
		t.Fatal("expected error for an unreachable redis")
	}
}
