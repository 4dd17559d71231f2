package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/movne-global/sales-ai-platform/internal/compliance"
	appconfig "github.com/movne-global/sales-ai-platform/internal/config"
	"github.com/movne-global/sales-ai-platform/internal/knowledge"
	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

func TestNewRedisClientUnavailableReturnsNil(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}

	if client := newRedisClient(context.Background(), cfg, logger); client != nil {
		_ = client.Close()
		t.Fatalf("expected nil client for unreachable redis")
	}
}

func TestNewRedisClientConnects(t *testing.T) {
	logger := logging.New("error")
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := newRedisClient(context.Background(), cfg, logger)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	_ = client.Close()
}

func TestDisclaimerConfigUsesLegalKnowledge(t *testing.T) {
	dir := t.TempDir()
	legal := []byte("disclaimer: \"טקסט משפטי מותאם\"\n")
	if err := os.WriteFile(filepath.Join(dir, "legal.yaml"), legal, 0o644); err != nil {
		t.Fatalf("write legal.yaml: %v", err)
	}

	store := knowledge.Load(dir, logging.New("error"))
	dc := disclaimerConfig(store)
	if dc.CustomText != "טקסט משפטי מותאם" {
		t.Fatalf("expected custom disclaimer text, got %q", dc.CustomText)
	}
}

func TestDisclaimerConfigDefaultsWhenMissing(t *testing.T) {
	store := knowledge.Load(t.TempDir(), logging.New("error"))
	dc := disclaimerConfig(store)
	if dc.CustomText != "" {
		t.Fatalf("expected default disclaimer, got %q", dc.CustomText)
	}
	if dc != compliance.DefaultDisclaimerConfig() {
		t.Fatalf("expected default config")
	}
}
