package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
)

func parseKeyValues(args []string) map[string]string {
	out := map[string]string{}
	for _, a := range args {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := strings.TrimSpace(parts[1])
		if k != "" {
			out[k] = v
		}
	}
	return out
}

// applyKeyValues sets properties named like the create flags.
func applyKeyValues(p *protocol.ServerProperties, kv map[string]string) error {
	for k, v := range kv {
		var err error
		switch k {
		case "description":
			p.Description = v
		case "version":
			p.Version = v
		case "difficulty":
			p.Difficulty = v
		case "max-players":
			p.MaxPlayers, err = strconv.Atoi(v)
		case "spawn-protection":
			p.SpawnProtection, err = strconv.Atoi(v)
		case "whitelist":
			p.Whitelist, err = strconv.ParseBool(v)
		case "cracked":
			p.Cracked, err = strconv.ParseBool(v)
		case "allow-flight":
			p.AllowFlight, err = strconv.ParseBool(v)
		case "force-gamemode":
			p.ForceGamemode, err = strconv.ParseBool(v)
		}
		if err != nil {
			return fmt.Errorf("bad value for %s: %w", k, err)
		}
	}
	return nil
}
