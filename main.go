// Command fattree generates a k-ary fat-tree topology: nodes, links and a
// per-link IPv4 addressing plan, emitted as a tinet specification with BIRD
// configs, an optional NetAnim trace and a TCP flow plan.
//
// Usage:
//
//	fattree -k 4 > spec.yaml          Build and print the tinet spec
//	fattree summary -k 8              Print layer and link counts
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// flagValues holds raw flag values before they are merged into a Config.
type flagValues struct {
	configFile string
	k          int
	dataRate   string
	delay      time.Duration
	queueSize  int
	baseNet    string
	prefixLen  int
	loopback   string
	flows      int
	senderRate string
	basePort   int
	withAnim   bool
	animPath   string
	birdDir    string
	birdTmpl   string
	noRouting  bool
	logLevel   string
	logJSON    bool
}

var flags flagValues

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	def := DefaultConfig()
	cmd := &cobra.Command{
		Use:           "fattree",
		Short:         "Generate a k-ary fat-tree topology",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `fattree builds a k-ary fat-tree (k/2)^2 core, k^2/2 aggregation,
k^2/2 edge switches and k^3/4 hosts, assigns one subnet per link and prints
a tinet specification to stdout.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logJSON {
				SetJSONFormat()
			}
			return nil
		},
		RunE: runBuild,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "YAML config file (flags override file values)")
	pf.IntVarP(&flags.k, "k", "k", def.K, "Number of ports per switch (even, >= 2)")
	pf.StringVar(&flags.dataRate, "data-rate", FormatDataRate(def.Link.DataRate), "Link data rate")
	pf.DurationVar(&flags.delay, "delay", def.Link.Delay, "Link propagation delay")
	pf.IntVar(&flags.queueSize, "queue-size", def.Link.QueueSize, "Link queue capacity in packets")
	pf.StringVar(&flags.baseNet, "base-network", def.BaseNetwork, "Network the link subnets are cut from")
	pf.IntVar(&flags.prefixLen, "subnet-prefix", def.SubnetPrefixLen, "Prefix length of each link subnet")
	pf.StringVar(&flags.loopback, "loopback-network", def.LoopbackNetwork, "Network router IDs are taken from")
	pf.StringVar(&flags.logLevel, "log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.logJSON, "log-json", false, "Log in JSON format")

	f := cmd.Flags()
	f.IntVar(&flags.flows, "flows", def.NumFlows, "Number of TCP flows to plan")
	f.StringVar(&flags.senderRate, "sender-rate", FormatDataRate(def.SenderRate), "Data rate of each flow source")
	f.IntVar(&flags.basePort, "base-port", def.BasePort, "Sink port of the first flow")
	f.BoolVar(&flags.withAnim, "with-anim", def.WithAnim, "Export a NetAnim trace")
	f.StringVar(&flags.animPath, "anim-path", def.AnimPath, "Path of the NetAnim trace")
	f.StringVar(&flags.birdDir, "bird-config-dir", def.BirdConfigDir, "Directory to output BIRD configuration files")
	f.StringVar(&flags.birdTmpl, "bird-templates", def.BirdTemplates, "Path to BIRD templates YAML file (built-in if empty)")
	f.BoolVar(&flags.noRouting, "no-routing", false, "Skip BIRD config generation")

	cmd.AddCommand(newSummaryCmd())
	return cmd
}

// resolveConfig layers defaults, the config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if flags.configFile != "" {
		var err error
		cfg, err = LoadConfigFile(flags.configFile, cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config %s: %w", flags.configFile, err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("k") {
		cfg.K = flags.k
	}
	if changed("data-rate") {
		rate, err := ParseDataRate(flags.dataRate)
		if err != nil {
			return cfg, err
		}
		cfg.Link.DataRate = rate
	}
	if changed("delay") {
		cfg.Link.Delay = flags.delay
	}
	if changed("queue-size") {
		cfg.Link.QueueSize = flags.queueSize
	}
	if changed("base-network") {
		cfg.BaseNetwork = flags.baseNet
	}
	if changed("subnet-prefix") {
		cfg.SubnetPrefixLen = flags.prefixLen
	}
	if changed("loopback-network") {
		cfg.LoopbackNetwork = flags.loopback
	}
	if changed("flows") {
		cfg.NumFlows = flags.flows
	}
	if changed("sender-rate") {
		rate, err := ParseDataRate(flags.senderRate)
		if err != nil {
			return cfg, err
		}
		cfg.SenderRate = rate
	}
	if changed("base-port") {
		cfg.BasePort = flags.basePort
	}
	if changed("with-anim") {
		cfg.WithAnim = flags.withAnim
	}
	if changed("anim-path") {
		cfg.AnimPath = flags.animPath
	}
	if changed("bird-config-dir") {
		cfg.BirdConfigDir = flags.birdDir
	}
	if changed("bird-templates") {
		cfg.BirdTemplates = flags.birdTmpl
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := SetLogLevel(cfg.LogLevel); err != nil {
		return cfg, NewInvalidParameterError("log level", cfg.LogLevel, err.Error())
	}
	return cfg, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ft, err := BuildFatTree(cfg)
	if err != nil {
		return fmt.Errorf("building topology: %w", err)
	}

	routing := !flags.noRouting
	if routing {
		templates, err := LoadTemplates(cfg.BirdTemplates)
		if err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
		configs, err := BuildRoutingConfigs(ft, templates)
		if err != nil {
			return err
		}
		if err := writeBirdConfigs(cfg.BirdConfigDir, configs); err != nil {
			return fmt.Errorf("writing BIRD configs: %w", err)
		}
	}

	flows, err := PlanFlows(ft, cfg.NumFlows, cfg.SenderRate, cfg.BasePort)
	if err != nil {
		return err
	}
	for _, f := range flows {
		WithStage("flows").Debug(f.String())
	}

	if cfg.WithAnim {
		// best-effort; the error is already logged
		_ = ft.ExportAnimation(cfg.AnimPath, DefaultLayoutOptions())
	}

	spec, err := GenerateSpec(ft, flows, routing)
	if err != nil {
		return err
	}
	return writeYAML(spec)
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print layer cardinalities, link counts and the address range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ft, err := BuildFatTree(cfg)
			if err != nil {
				return fmt.Errorf("building topology: %w", err)
			}
			printSummary(cmd.OutOrStdout(), ft)
			return nil
		},
	}
}

func printSummary(w io.Writer, ft *FatTree) {
	cfg := ft.Config()
	topo := ft.Topology()
	card := topo.Cardinalities()
	byKind := topo.LinksByKind()
	all := ft.Addresses().All()

	fmt.Fprintf(w, "k = %d (%d pods)\n", topo.K, topo.K)
	fmt.Fprintf(w, "nodes = %d (expected %d)\n", len(topo.Nodes()), cfg.TotalNodes())
	fmt.Fprintf(w, "  core:        %d\n", card.Core)
	fmt.Fprintf(w, "  aggregation: %d\n", card.Aggregation)
	fmt.Fprintf(w, "  edge:        %d\n", card.Edge)
	fmt.Fprintf(w, "  hosts:       %d\n", card.Hosts)
	fmt.Fprintf(w, "links = %d (expected %d)\n", len(topo.Links), cfg.TotalLinks())
	fmt.Fprintf(w, "  core-agg:    %d\n", byKind[LinkCoreAgg])
	fmt.Fprintf(w, "  agg-edge:    %d\n", byKind[LinkAggEdge])
	fmt.Fprintf(w, "  edge-host:   %d\n", byKind[LinkEdgeHost])
	if len(all) > 0 {
		fmt.Fprintf(w, "subnets %s .. %s\n", all[0].Subnet, all[len(all)-1].Subnet)
	}
}

func writeBirdConfigs(dir string, configs map[string]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	for name, config := range configs {
		path := filepath.Join(dir, name+".conf")
		if err := os.WriteFile(path, []byte(config), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}

func writeYAML(spec Spec) error {
	data, err := yaml.MarshalWithOptions(spec, yaml.IndentSequence(true))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
