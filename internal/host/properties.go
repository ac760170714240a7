package host

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/magiconair/properties"

	"github.com/faradayfan/mcserver-panel/internal/protocol"
	"github.com/faradayfan/mcserver-panel/internal/rcon"
)

const propertiesFile = "server.properties"

type cachedProps struct {
	modTime time.Time
	size    int64
	props   *properties.Properties
}

// propsCache keeps parsed server.properties files until they change on disk.
type propsCache struct {
	c *lru.Cache
}

func newPropsCache(size int) *propsCache {
	c, err := lru.New(size)
	if err != nil {
		// only fails for size <= 0
		c, _ = lru.New(64)
	}
	return &propsCache{c: c}
}

// load returns nil, nil when the file does not exist.
func (pc *propsCache) load(path string) (*properties.Properties, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		pc.c.Remove(path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if v, ok := pc.c.Get(path); ok {
		cp := v.(cachedProps)
		if cp.modTime.Equal(fi.ModTime()) && cp.size == fi.Size() {
			return cp.props, nil
		}
	}

	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	pc.c.Add(path, cachedProps{modTime: fi.ModTime(), size: fi.Size(), props: p})
	return p, nil
}

func (pc *propsCache) forget(path string) {
	pc.c.Remove(path)
}

func (r *Runtime) propertiesPath(folder string) string {
	return filepath.Join(r.DataDir, folder, propertiesFile)
}

// motd returns the description line, or "" when there is no properties file.
func (r *Runtime) motd(folder string) (string, error) {
	p, err := r.props.load(r.propertiesPath(folder))
	if err != nil || p == nil {
		return "", err
	}
	return p.GetString("motd", ""), nil
}

// rconEndpoint reads rcon.port / rcon.password. Missing file = rcon disabled.
func (r *Runtime) rconEndpoint(folder string) (rcon.Endpoint, error) {
	p, err := r.props.load(r.propertiesPath(folder))
	if err != nil || p == nil {
		return rcon.Endpoint{}, err
	}
	ep := rcon.Endpoint{
		Port:     rcon.DefaultPort,
		Password: p.GetString("rcon.password", ""),
	}
	if raw, ok := p.Get("rcon.port"); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return rcon.Endpoint{}, fmt.Errorf("%s: invalid rcon.port %q", folder, raw)
		}
		ep.Port = port
	}
	return ep, nil
}

// writeProperties merges the creation form into server.properties, keeping
// any keys already present.
func (r *Runtime) writeProperties(req protocol.ServerProperties) error {
	path := r.propertiesPath(req.FolderName)

	p, err := r.props.load(path)
	if err != nil {
		return err
	}
	if p == nil {
		p = properties.NewProperties()
	} else {
		p = p.FilterFunc(func(string, string) bool { return true })
	}
	p.DisableExpansion = true

	set := map[string]string{
		"motd":             req.Description,
		"max-players":      strconv.Itoa(req.MaxPlayers),
		"difficulty":       req.Difficulty,
		"white-list":       strconv.FormatBool(req.Whitelist),
		"online-mode":      strconv.FormatBool(!req.Cracked),
		"allow-flight":     strconv.FormatBool(req.AllowFlight),
		"force-gamemode":   strconv.FormatBool(req.ForceGamemode),
		"spawn-protection": strconv.Itoa(req.SpawnProtection),
	}
	if req.MaxPlayers <= 0 {
		delete(set, "max-players")
	}
	if req.Difficulty == "" {
		delete(set, "difficulty")
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, _, err := p.Set(k, set[k]); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("#Minecraft server properties\n")
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp properties: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp -> properties: %w", err)
	}
	r.props.forget(path)
	return nil
}
