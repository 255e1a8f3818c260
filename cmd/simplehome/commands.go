package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/simplehome/internal/config"
	"github.com/muurk/simplehome/internal/discovery"
	"github.com/muurk/simplehome/internal/logging"
	"github.com/muurk/simplehome/internal/server"
	"github.com/muurk/simplehome/internal/ssdp"
	"github.com/muurk/simplehome/internal/ui"
	"github.com/muurk/simplehome/internal/version"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(configCmd)
}

// loadSettings reads the settings file and starts logging at the effective level
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := logLevel
	if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		level = settings.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return nil, err
	}
	return settings, nil
}

// Serve command flags
var (
	serveInterface string
	servePort      int
	serveListen    string
	serveMDNS      bool
	serveQuiet     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Advertise the device and serve its description",
	Long: `Start the SSDP engine and the description HTTP server.

The engine joins 239.255.255.250:1900 on the selected interface, answers
matching M-SEARCH requests after a random delay bounded by MX, and sends
an ssdp:alive notify every announcement interval. The HTTP server serves
the XML device description, a JSON status document at /status and a
WebSocket stream of engine events at /events.

Binding port 1900 and the default HTTP port 80 may require elevated
privileges.`,
	Example: `  # Advertise on the first multicast-capable interface
  simplehome serve

  # Advertise on a specific interface with the description on port 8080
  simplehome serve --interface eth0 --port 8080

  # Also advertise the description service over mDNS
  simplehome serve --mdns --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveInterface, "interface", "", "Network interface to advertise on (empty = settings file or auto)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Description HTTP port (0 = settings file)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address, e.g. 127.0.0.1:8080 (overrides --port; the listener port is advertised)")
	serveCmd.Flags().BoolVar(&serveMDNS, "mdns", false, "Advertise the description service over mDNS")
	serveCmd.Flags().BoolVar(&serveQuiet, "quiet", false, "Do not print engine events")
}

// applyServeFlags overlays the flags that were set on cmd onto settings
func applyServeFlags(cmd *cobra.Command, settings *config.Settings) error {
	if cmd.Flags().Changed("interface") {
		settings.Interface = serveInterface
	}
	if cmd.Flags().Changed("port") {
		if err := settings.Set("http_port", strconv.Itoa(servePort)); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("mdns") {
		settings.MDNS = serveMDNS
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, settings); err != nil {
		return err
	}

	desc := settings.Descriptor(version.Product())

	fmt.Println(ui.NewHeader("SSDP Device", "simplehome serve",
		ui.Param{Key: "Friendly name", Value: desc.FriendlyName},
		ui.Param{Key: "Device type", Value: desc.DeviceType},
		ui.Param{Key: "Interface", Value: orDefault(settings.Interface, "auto")},
		ui.Param{Key: "HTTP port", Value: strconv.Itoa(desc.Port)},
		ui.Param{Key: "Notify every", Value: desc.NotifyInterval().String()},
	).Render())
	fmt.Println()

	opts := ssdp.Options{TickInterval: settings.TickInterval}
	if !serveQuiet {
		opts.OnEvent = func(ev ssdp.Event) {
			fmt.Println(ui.RenderEvent(ev))
		}
	}

	srv := server.New(&server.Config{
		Addr:      serveListen,
		Interface: settings.Interface,
		MDNS:      settings.MDNS,
	}, desc, opts)

	if err := srv.Start(); err != nil {
		fmt.Println(ui.RenderFailure("Server stopped", err,
			"Port 1900 and ports below 1024 may require root or CAP_NET_BIND_SERVICE",
			"Use --interface to pick a multicast-capable interface",
			"Use --port or --listen to move the description server",
		))
		return err
	}
	return nil
}

// Search command flags
var (
	searchTarget    string
	searchMX        int
	searchTimeout   time.Duration
	searchInterface string
	searchFetch     bool
	searchMDNS      bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the network for SSDP devices",
	Long: `Multicast an M-SEARCH request and list the devices that answer.

Responses are collected until the timeout expires and collapsed by USN.
With --fetch each device's LOCATION is retrieved and its description
document decoded. With --mdns the DNS-SD browse for _http._tcp services
is used instead of SSDP.`,
	Example: `  # Find everything that answers ssdp:all
  simplehome search

  # Search for basic devices and fetch their descriptions
  simplehome search --st urn:schemas-upnp-org:device:Basic:1 --fetch

  # Search for one device by UUID
  simplehome search --st uuid:38323636-4558-4dda-9188-cda0e6123456`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTarget, "st", ssdp.SearchTargetAll, "Search target")
	searchCmd.Flags().IntVar(&searchMX, "mx", discovery.DefaultMX, "Maximum response delay requested from devices, in seconds")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", discovery.DefaultSearchTimeout, "How long to collect responses")
	searchCmd.Flags().StringVar(&searchInterface, "interface", "", "Outbound multicast interface (empty = system default)")
	searchCmd.Flags().BoolVar(&searchFetch, "fetch", false, "Fetch and decode each device description")
	searchCmd.Flags().BoolVar(&searchMDNS, "mdns", false, "Browse mDNS instead of sending an SSDP search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if _, err := loadSettings(); err != nil {
		return err
	}

	width := ui.GetTerminalWidth()
	params := []ui.Param{{Key: "Timeout", Value: searchTimeout.String()}}
	if searchMDNS {
		params = append(params, ui.Param{Key: "Service", Value: discovery.ServiceType + "." + discovery.ServiceDomain})
	} else {
		params = append(params,
			ui.Param{Key: "Target", Value: searchTarget},
			ui.Param{Key: "MX", Value: strconv.Itoa(searchMX)},
		)
	}
	fmt.Println(ui.NewHeader("SSDP Search", "simplehome search", params...).SetWidth(width).Render())
	fmt.Println()

	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout+discovery.DefaultFetchTimeout)
	defer cancel()

	var (
		devices []*discovery.Device
		err     error
	)
	if searchMDNS {
		devices, err = discovery.Browse(ctx, searchTimeout)
	} else {
		searcher := discovery.NewSearcher()
		searcher.Target = searchTarget
		searcher.MX = searchMX
		searcher.Timeout = searchTimeout
		searcher.Interface = searchInterface
		searcher.FetchDescriptions = searchFetch
		devices, err = searcher.Search(ctx)
	}
	if err != nil {
		fmt.Println(ui.RenderFailure("Search failed", err,
			"Check that the interface supports multicast",
			"Firewalls often block UDP 1900 and unicast replies",
		))
		return err
	}

	fmt.Println(ui.RenderDevices(devices, width))
	if searchFetch {
		for _, d := range devices {
			if d.Description == nil {
				continue
			}
			fmt.Println()
			fmt.Println(ui.HeaderTitleStyle.Render(d.String()))
			fmt.Println(ui.RenderDescription(d.Description))
		}
	}
	return nil
}

// Describe command flags
var (
	describeInterface string
	describeSummary   bool
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the device description document",
	Long: `Print the XML device description this host would serve.

No sockets are opened. The URL base uses the address of the selected
interface, or 127.0.0.1 when none is available.`,
	Example: `  # Print the XML document
  simplehome describe

  # Print a readable summary instead
  simplehome describe --summary`,
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringVar(&describeInterface, "interface", "", "Interface whose address is used in the URL base")
	describeCmd.Flags().BoolVar(&describeSummary, "summary", false, "Print a summary instead of XML")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("interface") {
		settings.Interface = describeInterface
	}

	desc := settings.Descriptor(version.Product())
	localIP, hw := describeAddress(settings.Interface)
	if desc.UUID == "" {
		desc.UUID = ssdp.UUIDFromChipID(ssdp.ChipID(hw))
	}

	if describeSummary {
		fmt.Println(ui.RenderDescription(ssdp.NewDescription(desc, localIP)))
		return nil
	}

	doc, err := ssdp.BuildDescription(desc, localIP)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(doc)
	return err
}

// describeAddress resolves the advertised address without binding anything
func describeAddress(name string) (net.IP, net.HardwareAddr) {
	ifi, ip, err := ssdp.ResolveInterface(name)
	if err != nil {
		logging.Debug("No interface for description, using loopback")
		return net.IPv4(127, 0, 0, 1).To4(), nil
	}
	return ip, ifi.HardwareAddr
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the settings file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Exists(configPath) && !configInitForce {
			return fmt.Errorf("settings file already exists (use --force to overwrite)")
		}
		settings := config.NewSettings()
		if err := settings.Save(configPath); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("Settings written",
			ui.Param{Key: "Path", Value: displayPath(configPath)},
			ui.Param{Key: "Friendly name", Value: settings.FriendlyName()},
		))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := settings.Marshal(displayPath(configPath))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save the file.

Keys: room_name, interface, http_port, tick_interval, log_level, mdns,
device.port, device.ttl, device.interval and the device.* string fields
(for example device.friendly_name or device.uuid).`,
	Example: `  simplehome config set room_name Kitchen
  simplehome config set device.device_type urn:schemas-upnp-org:device:Basic:1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(configPath); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("Setting saved",
			ui.Param{Key: args[0], Value: args[1]},
			ui.Param{Key: "Path", Value: displayPath(configPath)},
		))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing settings file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func displayPath(path string) string {
	if path != "" {
		return path
	}
	if p, err := config.GetConfigPath(); err == nil {
		return p
	}
	return "(default)"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
