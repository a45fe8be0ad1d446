package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zaczkows/fb4rasp/internal/errors"
)

// ValidateRemoteName checks that name can be used as a key under remote.
// Names are lowercased on load, so they are required to be lowercase here.
func ValidateRemoteName(name string) error {
	if name == "" || strings.ContainsAny(name, ". \t\n") || strings.ToLower(name) != name {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid remote name %q", name),
			"Use a lowercase name without dots or spaces, e.g. nas or media-pc")
	}
	return nil
}

// AddRemote adds or replaces remote.<name> in the config file at path.
// YAML files are edited in place so comments and key order survive. TOML
// files are decoded and re-encoded.
func AddRemote(path, name string, r RemoteConfig) error {
	if err := ValidateRemoteName(name); err != nil {
		return err
	}
	if err := validateRemote(name, r); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid remote", "")
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read "+path,
			"Run 'fb4rasp init' to create a config file first")
	}

	var out []byte
	if format == FormatYAML {
		out, err = addRemoteYAML(data, name, r)
	} else {
		out, err = addRemoteTOML(data, name, r)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to update "+path, "Check the file is valid")
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path, "Check file permissions")
	}
	return nil
}

func addRemoteYAML(data []byte, name string, r RemoteConfig) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mappingNode()}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("invalid YAML document structure")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping at document root")
	}

	remotes := findMapValue(doc, "remote")
	if remotes == nil || remotes.Kind != yaml.MappingNode {
		remotes = mappingNode()
		setMapValue(doc, "remote", remotes)
	}

	entry := mappingNode()
	setMapValue(entry, "ip", scalarNode("!!str", r.IP))
	if r.Port != 0 {
		setMapValue(entry, "port", scalarNode("!!int", strconv.Itoa(r.Port)))
	}
	if r.Enable != nil {
		setMapValue(entry, "enable", scalarNode("!!bool", strconv.FormatBool(*r.Enable)))
	}
	setMapValue(remotes, name, entry)

	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	enc.Close()
	return []byte(buf.String()), nil
}

func addRemoteTOML(data []byte, name string, r RemoteConfig) ([]byte, error) {
	doc := map[string]any{}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	remotes, _ := doc["remote"].(map[string]any)
	if remotes == nil {
		remotes = map[string]any{}
	}
	entry := map[string]any{"ip": r.IP}
	if r.Port != 0 {
		entry["port"] = r.Port
	}
	if r.Enable != nil {
		entry["enable"] = *r.Enable
	}
	remotes[name] = entry
	doc["remote"] = remotes

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return []byte(buf.String()), nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		k := node.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// setMapValue replaces the value under key, appending the pair if absent.
func setMapValue(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if k := node.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content, scalarNode("!!str", key), value)
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
