package config

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser errors.
var (
	ErrInvalidYAML       = errors.New("invalid YAML format")
	ErrInvalidIndent     = errors.New("invalid indentation")
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrInvalidDuration   = errors.New("invalid duration format")
	ErrInvalidNumber     = errors.New("invalid number format")
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrInvalidListItem   = errors.New("invalid list item format")
	ErrInvalidDate       = errors.New("invalid date format, want YYYY-MM-DD")
)

// LoadConfig loads configuration from a file path.
// It reads the file, substitutes environment variables, parses YAML,
// and applies defaults for missing values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	return ParseConfig(data)
}

// ParseConfig parses configuration from YAML data.
// It substitutes environment variables and applies defaults for missing values.
func ParseConfig(data []byte) (*Config, error) {
	// Substitute environment variables
	data = substituteEnvVars(data)

	// Start with defaults
	config := DefaultConfig()

	// Parse YAML and merge with defaults
	if err := parseYAML(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	// Pattern matches ${VAR} or ${VAR:-default}
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllFunc(data, func(match []byte) []byte {
		// Extract content between ${ and }
		content := string(match[2 : len(match)-1])

		// Check for default value syntax: VAR:-default
		if idx := strings.Index(content, ":-"); idx != -1 {
			varName := content[:idx]
			defaultVal := content[idx+2:]
			if val := os.Getenv(varName); val != "" {
				return []byte(val)
			}
			return []byte(defaultVal)
		}

		// Simple variable substitution
		return []byte(os.Getenv(content))
	})
}

// yamlNode represents a parsed YAML node.
type yamlNode struct {
	key          string
	value        string
	indent       int
	children     []*yamlNode
	isList       bool
	isListObject bool // true when list item contains key: value (- key: value)
	listItems    []string
}

// parseYAML parses YAML data into the config struct.
func parseYAML(data []byte, config *Config) error {
	lines := strings.Split(string(data), "\n")
	root := &yamlNode{indent: -1}

	if err := buildTree(lines, root); err != nil {
		return err
	}

	return applyConfig(root, config)
}

// buildTree builds a tree structure from YAML lines.
func buildTree(lines []string, root *yamlNode) error {
	stack := []*yamlNode{root}

	for _, line := range lines {
		// Skip empty lines and comments
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Calculate indentation
		indent := countIndent(line)

		// Parse key-value or list item
		node, err := parseLine(trimmed, indent)
		if err != nil {
			return err
		}

		// Find parent based on indentation
		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1]

		// Handle list items
		if node.isList {
			if node.isListObject {
				// List item that starts a new object (- key: value)
				// Create a container node for this list item
				listItemNode := &yamlNode{
					indent:   indent,
					children: []*yamlNode{},
				}
				// Add the first key-value as child
				firstChild := &yamlNode{
					key:    node.key,
					value:  node.value,
					indent: indent + 2,
				}
				listItemNode.children = append(listItemNode.children, firstChild)
				parent.children = append(parent.children, listItemNode)
				stack = append(stack, listItemNode)
				continue
			}

			// Simple list item (- value)
			if parent.listItems == nil {
				parent.listItems = []string{}
			}
			parent.listItems = append(parent.listItems, node.value)
			continue
		}

		parent.children = append(parent.children, node)
		stack = append(stack, node)
	}

	return nil
}

// countIndent counts the number of leading spaces.
func countIndent(line string) int {
	count := 0
	for _, ch := range line {
		if ch == ' ' {
			count++
		} else if ch == '\t' {
			count += 2 // Treat tab as 2 spaces
		} else {
			break
		}
	}
	return count
}

// parseLine parses a single YAML line.
func parseLine(line string, indent int) (*yamlNode, error) {
	// Check for list item
	if strings.HasPrefix(line, "- ") {
		content := strings.TrimPrefix(line, "- ")

		// Check if list item contains key: value (nested object like "- target: *")
		if colonIdx := strings.Index(content, ":"); colonIdx != -1 {
			key := strings.TrimSpace(content[:colonIdx])
			value := ""
			if colonIdx+1 < len(content) {
				value = strings.TrimSpace(content[colonIdx+1:])
			}
			value = unquote(value)

			return &yamlNode{
				key:          key,
				value:        value,
				indent:       indent,
				isList:       true,
				isListObject: true,
			}, nil
		}

		// Simple list item (- value)
		return &yamlNode{
			value:  strings.TrimSpace(content),
			indent: indent,
			isList: true,
		}, nil
	}

	// Parse key: value
	colonIdx := strings.Index(line, ":")
	if colonIdx == -1 {
		return nil, ErrInvalidYAML
	}

	key := strings.TrimSpace(line[:colonIdx])
	value := ""
	if colonIdx+1 < len(line) {
		value = strings.TrimSpace(line[colonIdx+1:])
	}

	// Remove quotes from value
	value = unquote(value)

	return &yamlNode{
		key:    key,
		value:  value,
		indent: indent,
	}, nil
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parseInlineArray parses inline array format like ["a", "b", "c"]
func parseInlineArray(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil
	}

	// Remove brackets
	s = s[1 : len(s)-1]
	if s == "" {
		return []string{}
	}

	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		item = unquote(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// applyConfig applies parsed YAML nodes to the config struct.
func applyConfig(root *yamlNode, config *Config) error {
	for _, node := range root.children {
		switch node.key {
		case "node":
			applyNodeConfig(node, &config.Node)
		case "multicast":
			if err := applyMulticastConfig(node, &config.Multicast); err != nil {
				return err
			}
		case "reliability":
			if err := applyReliabilityConfig(node, &config.Reliability); err != nil {
				return err
			}
		case "election":
			if err := applyElectionConfig(node, &config.Election); err != nil {
				return err
			}
		case "logging":
			applyLogConfig(node, &config.Logging)
		case "booking":
			if err := applyBookingConfig(node, &config.Booking); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyNodeConfig applies node identity configuration.
func applyNodeConfig(node *yamlNode, config *NodeConfig) {
	for _, child := range node.children {
		switch child.key {
		case "id":
			if child.value != "" {
				config.ID = child.value
			}
		case "nickname":
			if child.value != "" {
				config.Nickname = child.value
			}
		}
	}
}

// applyMulticastConfig applies multicast group configuration.
func applyMulticastConfig(node *yamlNode, config *MulticastConfig) error {
	for _, child := range node.children {
		switch child.key {
		case "address":
			if child.value != "" {
				config.Address = child.value
			}
		case "port":
			if child.value != "" {
				val, err := strconv.Atoi(child.value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.Port = val
			}
		case "interface":
			config.Interface = child.value
		case "ttl":
			if child.value != "" {
				val, err := strconv.Atoi(child.value)
				if err != nil {
					return ErrInvalidNumber
				}
				config.TTL = val
			}
		case "loopback":
			if child.value != "" {
				config.Loopback = parseBool(child.value)
			}
		}
	}
	return nil
}

// applyReliabilityConfig applies retry and failure detector timing.
func applyReliabilityConfig(node *yamlNode, config *ReliabilityConfig) error {
	for _, child := range node.children {
		var target *time.Duration
		switch child.key {
		case "retryInterval":
			target = &config.RetryInterval
		case "heartbeatInterval":
			target = &config.HeartbeatInterval
		case "sweepInterval":
			target = &config.SweepInterval
		case "livenessTimeout":
			target = &config.LivenessTimeout
		case "dedupWindow":
			target = &config.DedupWindow
		default:
			continue
		}
		if err := setDuration(target, child.value); err != nil {
			return err
		}
	}
	return nil
}

// applyElectionConfig applies election timing.
func applyElectionConfig(node *yamlNode, config *ElectionConfig) error {
	for _, child := range node.children {
		var target *time.Duration
		switch child.key {
		case "electionTimeout":
			target = &config.ElectionTimeout
		case "voteTimeout":
			target = &config.VoteTimeout
		case "discoveryTimeout":
			target = &config.DiscoveryTimeout
		case "standDownMin":
			target = &config.StandDownMin
		case "standDownMax":
			target = &config.StandDownMax
		default:
			continue
		}
		if err := setDuration(target, child.value); err != nil {
			return err
		}
	}
	return nil
}

// applyLogConfig applies logging configuration.
func applyLogConfig(node *yamlNode, config *LogConfig) {
	for _, child := range node.children {
		switch child.key {
		case "level":
			if child.value != "" {
				config.Level = child.value
			}
		case "format":
			if child.value != "" {
				config.Format = child.value
			}
		case "output":
			if child.value != "" {
				config.Output = child.value
			}
		}
	}
}

// applyBookingConfig applies the room and user directory.
func applyBookingConfig(node *yamlNode, config *BookingConfig) error {
	for _, child := range node.children {
		switch child.key {
		case "slotDate":
			if child.value != "" {
				config.SlotDate = child.value
			}
		case "users":
			if child.value != "" {
				config.Users = parseInlineArray(child.value)
			} else {
				config.Users = append([]string(nil), child.listItems...)
			}
		case "rooms":
			rooms, err := parseRooms(child)
			if err != nil {
				return err
			}
			config.Rooms = rooms
		}
	}
	return nil
}

// parseRooms parses room entries given as "- name: X" list objects.
func parseRooms(node *yamlNode) ([]RoomConfig, error) {
	var rooms []RoomConfig
	for _, child := range node.children {
		room := RoomConfig{}
		for _, roomChild := range child.children {
			switch roomChild.key {
			case "name":
				room.Name = roomChild.value
			case "capacity":
				val, err := strconv.Atoi(roomChild.value)
				if err != nil {
					return nil, ErrInvalidNumber
				}
				room.Capacity = val
			}
		}
		if room.Name != "" {
			rooms = append(rooms, room)
		}
	}
	// Plain list items name rooms without a capacity.
	for _, name := range node.listItems {
		rooms = append(rooms, RoomConfig{Name: name})
	}
	return rooms, nil
}

func setDuration(target *time.Duration, value string) error {
	if value == "" {
		return nil
	}
	dur, err := parseDuration(value)
	if err != nil {
		return err
	}
	*target = dur
	return nil
}

// parseDuration parses a duration string supporting formats like "500ms", "3s", "5m".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, ErrInvalidDuration
	}
	return dur, nil
}

// parseBool parses a boolean string.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
