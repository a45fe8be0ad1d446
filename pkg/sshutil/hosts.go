package sshutil

import (
	"bytes"
	"os"
	"slices"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// HostEntry is one concrete Host block from an ssh config.
type HostEntry struct {
	Alias    string
	Hostname string
	User     string
	Port     string
}

// Label is what the init wizard shows next to the alias.
func (h HostEntry) Label() string {
	var parts []string
	if h.User != "" {
		parts = append(parts, h.User+"@")
	}
	if h.Hostname != "" {
		parts = append(parts, h.Hostname)
	} else {
		parts = append(parts, h.Alias)
	}
	if h.Port != "" && h.Port != "22" {
		parts = append(parts, ":"+h.Port)
	}
	return h.Alias + " (" + strings.Join(parts, "") + ")"
}

// ConfigHosts lists the concrete aliases in the ssh config at path, sorted.
// Wildcard patterns are skipped. A missing file yields no hosts.
func ConfigHosts(path string) ([]HostEntry, error) {
	content, _, err := readConfigUntilMatch(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var hosts []HostEntry
	for _, h := range cfg.Hosts {
		for _, p := range h.Patterns {
			alias := p.String()
			if strings.ContainsAny(alias, "*?!") || seen[alias] {
				continue
			}
			seen[alias] = true
			e := HostEntry{Alias: alias}
			e.Hostname, _ = cfg.Get(alias, "HostName")
			e.User, _ = cfg.Get(alias, "User")
			e.Port, _ = cfg.Get(alias, "Port")
			hosts = append(hosts, e)
		}
	}
	slices.SortFunc(hosts, func(a, b HostEntry) int { return strings.Compare(a.Alias, b.Alias) })
	return hosts, nil
}
