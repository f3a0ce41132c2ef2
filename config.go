package main

import (
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds every input of a fat-tree build. It is constructed once and
// passed by value; nothing mutates it after Validate.
type Config struct {
	K    int
	Link LinkParams

	BaseNetwork     string
	SubnetPrefixLen int
	LoopbackNetwork string

	NumFlows   int
	SenderRate uint64
	BasePort   int

	WithAnim bool
	AnimPath string

	BirdConfigDir string
	BirdTemplates string

	LogLevel string
}

// DefaultConfig returns the default configuration (k=4, small for testing).
func DefaultConfig() Config {
	return Config{
		K:               4,
		Link:            DefaultLinkParams(),
		BaseNetwork:     "10.0.0.0/8",
		SubnetPrefixLen: 24,
		LoopbackNetwork: "172.16.0.0/12",
		NumFlows:        2,
		SenderRate:      100_000,
		BasePort:        50000,
		WithAnim:        false,
		AnimPath:        "XML/animation.xml",
		BirdConfigDir:   "./output",
		BirdTemplates:   "",
		LogLevel:        "info",
	}
}

// Validate rejects configurations that cannot build a fat-tree.
func (c Config) Validate() error {
	card, err := ComputeCardinalities(c.K)
	if err != nil {
		return err
	}
	if err := c.Link.Validate(); err != nil {
		return err
	}

	if _, err := NewAddressAllocator(c.BaseNetwork, c.SubnetPrefixLen); err != nil {
		return err
	}
	rids, err := NewRouterIDs(c.LoopbackNetwork)
	if err != nil {
		return err
	}
	if !rids.Fits(card.Total()) {
		return NewInvalidParameterError("loopback network", c.LoopbackNetwork,
			fmt.Sprintf("too small for %d router IDs", card.Total()))
	}
	_, base, _ := net.ParseCIDR(c.BaseNetwork)
	_, loopback, _ := net.ParseCIDR(c.LoopbackNetwork)
	if networksOverlap(base, loopback) {
		return NewInvalidParameterError("loopback network", c.LoopbackNetwork,
			"overlaps base network "+c.BaseNetwork)
	}

	if c.NumFlows < 0 {
		return NewInvalidParameterError("flows", c.NumFlows, "must not be negative")
	}
	if c.NumFlows > 0 && c.SenderRate == 0 {
		return NewInvalidParameterError("sender rate", c.SenderRate, "must be positive")
	}
	if c.BasePort < 1 || c.BasePort+c.NumFlows > 65536 {
		return NewInvalidParameterError("base port", c.BasePort,
			fmt.Sprintf("ports %d..%d out of range", c.BasePort, c.BasePort+c.NumFlows-1))
	}
	if c.WithAnim && c.AnimPath == "" {
		return NewInvalidParameterError("animation path", c.AnimPath, "required when animation is enabled")
	}
	return nil
}

// TotalNodes returns the total number of nodes in the topology.
func (c Config) TotalNodes() int {
	card, err := ComputeCardinalities(c.K)
	if err != nil {
		return 0
	}
	return card.Total()
}

// TotalLinks returns the total number of links in the topology.
func (c Config) TotalLinks() int {
	if ValidateArity(c.K) != nil {
		return 0
	}
	total := 0
	for _, n := range ExpectedLinks(c.K) {
		total += n
	}
	return total
}

// fileConfig is the YAML form of Config. Rates and delays are strings such
// as "1Gbps" and "10us"; zero values leave the defaults in place.
type fileConfig struct {
	K               int    `yaml:"k"`
	DataRate        string `yaml:"data_rate"`
	Delay           string `yaml:"delay"`
	QueueSize       int    `yaml:"queue_size"`
	BaseNetwork     string `yaml:"base_network"`
	SubnetPrefixLen int    `yaml:"subnet_prefix_len"`
	LoopbackNetwork string `yaml:"loopback_network"`
	Flows           *int   `yaml:"flows"`
	SenderRate      string `yaml:"sender_rate"`
	BasePort        int    `yaml:"base_port"`
	WithAnim        bool   `yaml:"with_anim"`
	AnimPath        string `yaml:"anim_path"`
	BirdConfigDir   string `yaml:"bird_config_dir"`
	BirdTemplates   string `yaml:"bird_templates"`
	LogLevel        string `yaml:"log_level"`
}

// LoadConfigFile reads a YAML config file on top of base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	return parseConfig(data, base)
}

func parseConfig(data []byte, base Config) (Config, error) {
	var fc fileConfig
	if err := yaml.UnmarshalWithOptions(data, &fc, yaml.Strict()); err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}

	cfg := base
	if fc.K != 0 {
		cfg.K = fc.K
	}
	if fc.DataRate != "" {
		rate, err := ParseDataRate(fc.DataRate)
		if err != nil {
			return base, err
		}
		cfg.Link.DataRate = rate
	}
	if fc.Delay != "" {
		d, err := time.ParseDuration(fc.Delay)
		if err != nil {
			return base, NewInvalidParameterError("delay", fc.Delay, err.Error())
		}
		cfg.Link.Delay = d
	}
	if fc.QueueSize != 0 {
		cfg.Link.QueueSize = fc.QueueSize
	}
	if fc.BaseNetwork != "" {
		cfg.BaseNetwork = fc.BaseNetwork
	}
	if fc.SubnetPrefixLen != 0 {
		cfg.SubnetPrefixLen = fc.SubnetPrefixLen
	}
	if fc.LoopbackNetwork != "" {
		cfg.LoopbackNetwork = fc.LoopbackNetwork
	}
	if fc.Flows != nil {
		cfg.NumFlows = *fc.Flows
	}
	if fc.SenderRate != "" {
		rate, err := ParseDataRate(fc.SenderRate)
		if err != nil {
			return base, err
		}
		cfg.SenderRate = rate
	}
	if fc.BasePort != 0 {
		cfg.BasePort = fc.BasePort
	}
	if fc.WithAnim {
		cfg.WithAnim = true
	}
	if fc.AnimPath != "" {
		cfg.AnimPath = fc.AnimPath
	}
	if fc.BirdConfigDir != "" {
		cfg.BirdConfigDir = fc.BirdConfigDir
	}
	if fc.BirdTemplates != "" {
		cfg.BirdTemplates = fc.BirdTemplates
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return cfg, nil
}

var rateUnits = []struct {
	suffix string
	mult   uint64
}{
	// longest suffix first so "Gbps" is not read as "bps"
	{"Gbps", 1_000_000_000},
	{"Mbps", 1_000_000},
	{"kbps", 1_000},
	{"Kbps", 1_000},
	{"bps", 1},
}

// ParseDataRate parses rates such as "1Gbps", "100kbps" or "2.5Mbps" into
// bits per second.
func ParseDataRate(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	for _, u := range rateUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		num := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return 0, NewInvalidParameterError("data rate", s, "expected a positive number")
		}
		bits := v * float64(u.mult)
		if bits >= math.MaxUint64 {
			return 0, NewInvalidParameterError("data rate", s, "out of range")
		}
		if bits < 1 {
			return 0, NewInvalidParameterError("data rate", s, "must be at least 1bps")
		}
		return uint64(bits), nil
	}
	return 0, NewInvalidParameterError("data rate", s, "unit must be bps, kbps, Mbps or Gbps")
}

// FormatDataRate renders bits per second with the largest exact unit.
func FormatDataRate(bps uint64) string {
	for _, u := range rateUnits {
		if u.suffix == "Kbps" {
			continue
		}
		if bps >= u.mult && bps%u.mult == 0 {
			return fmt.Sprintf("%d%s", bps/u.mult, u.suffix)
		}
	}
	return fmt.Sprintf("%dbps", bps)
}
