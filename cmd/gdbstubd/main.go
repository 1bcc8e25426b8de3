// Command gdbstubd runs the GDB Remote Serial Protocol debug server as a
// standalone daemon, backed by the in-memory faketarget.Manager since no
// real OS debug API is wired into this build (spec.md scopes the target
// side to Horizon; SPEC_FULL.md's faketarget package stands in for it the
// way go-ublk's backend.Memory stands in for a real block device).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ehrlich-b/go-dmnt2gdb/internal/config"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/constants"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/faketarget"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/interfaces"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/logging"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/transport/tcp"
	"github.com/ehrlich-b/go-dmnt2gdb/internal/transport/tunnel"

	gdbstub "github.com/ehrlich-b/go-dmnt2gdb"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gdbstubd",
	Short: "A GDB Remote Serial Protocol debug server",
	Long:  "gdbstubd serves the GDB Remote Serial Protocol over TCP or a local Unix-domain tunnel, attaching to a simulated debug target.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, configCmd)
	configCmd.AddCommand(configShowCmd)

	registerConfigFlags(serveCmd)
	registerConfigFlags(configShowCmd)
}

// registerConfigFlags binds the flag set config.Load expects onto cmd, so
// both serveCmd and configShowCmd resolve the same Config from the same
// inputs. Flag names are normalized from "-" to "_" so BindPFlags keys
// match config.Load's keys.
func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})
	cmd.Flags().Int("gdb-port", constants.DefaultGdbServerPort, "TCP port for the GDB transport")
	cmd.Flags().Int("debug-log-port", 0, "TCP port for the mirrored debug-log sink (0 disables it)")
	cmd.Flags().Bool("tunnel", false, "use the local Unix-domain tunnel transport instead of TCP")
	cmd.Flags().String("tunnel-path", constants.TunnelGdbEndpoint, "Unix-domain socket path for the tunnel transport")
	cmd.Flags().String("log-level", "info", "debug, info, warn, or error")
	cmd.Flags().String("log-format", "text", "text or json")
	cmd.Flags().Bool("no-color", false, "disable ANSI color in the startup banner")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the debug server and block until interrupted",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the fully resolved configuration as YAML",
	RunE:  runConfigShow,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("gdbstubd: binding flags: %w", err)
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	return cfg.WriteYAML(cmd.OutOrStdout())
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("gdbstubd: binding flags: %w", err)
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LoggingConfig())
	logging.SetDefault(logger)

	pm := faketarget.NewManager()
	pm.AddProcess(
		interfaces.ProcessInfo{ProcessID: 1, Name: "demo"},
		true,
		[]interfaces.ModuleInfo{{Name: "demo", Base: 0, Size: faketarget.DefaultMemorySize}},
		[]uint64{1},
		[]interfaces.MemoryRegion{{Address: 0, Size: faketarget.DefaultMemorySize, Permission: "rwx", State: "free"}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, addr, err := listen(cfg)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		return err
	}
	defer ln.Close()

	var debugLogAddr string
	if cfg.DebugLogPort != 0 {
		debugLogAddr = fmt.Sprintf(":%d", cfg.DebugLogPort)
	}
	logging.Banner(os.Stdout, "dev", addr, debugLogAddr, cfg.NoColor)

	opts := gdbstub.Options{Logger: logger, Observer: gdbstub.NewMetrics()}

	serveErr := make(chan error, 1)
	go func() { serveErr <- gdbstub.Serve(ctx, ln, pm, opts) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
		cancel()
		<-serveErr
		return nil
	case err := <-serveErr:
		if err != nil && ctx.Err() == nil {
			logger.Error("serve exited", "error", err)
			return err
		}
		return nil
	}
}

// listen builds the transport Listener cfg selects and returns its address
// for the startup banner.
func listen(cfg config.Config) (interfaces.Listener, string, error) {
	if cfg.Tunnel {
		ln, err := tunnel.Listen(cfg.TunnelPath)
		if err != nil {
			return nil, "", err
		}
		return ln, ln.Addr(), nil
	}

	addr := fmt.Sprintf(":%d", cfg.GdbPort)
	ln, err := tcp.Listen(addr)
	if err != nil {
		return nil, "", err
	}
	return ln, ln.Addr(), nil
}
