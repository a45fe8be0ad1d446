package config

import "sort"

// SortedRemoteNames returns remote names in a stable order.
func SortedRemoteNames(remotes map[string]RemoteConfig) []string {
	names := make([]string, 0, len(remotes))
	for name := range remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledRemotes returns the names of remotes that should be polled.
func EnabledRemotes(remotes map[string]RemoteConfig) []string {
	var names []string
	for _, name := range SortedRemoteNames(remotes) {
		if remotes[name].Enabled() {
			names = append(names, name)
		}
	}
	return names
}
