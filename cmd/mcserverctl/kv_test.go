package main

import (
	"testing"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

func TestApplyKeyValues(t *testing.T) {
	p := protocol.ServerProperties{MaxPlayers: 20}
	kv := parseKeyValues([]string{"max-players=8", "cracked=true", "junk", "=x", "difficulty = hard"})

	if err := applyKeyValues(&p, kv); err != nil {
		t.Fatal(err)
	}
	if p.MaxPlayers != 8 || !p.Cracked || p.Difficulty != "hard" {
		t.Errorf("props = %+v", p)
	}

	if err := applyKeyValues(&p, map[string]string{"whitelist": "maybe"}); err == nil {
		t.Error("expected error for non-bool whitelist")
	}
}
