package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/copycat/internal/cliconfig"
	"github.com/bft-labs/copycat/pkg/copycat"
	"github.com/bft-labs/copycat/pkg/log"
	"github.com/bft-labs/copycat/plugins/logwatcher"
)

const helpDescription = `
Record a joypad command stream and play it back with the original timing.

Send the record trigger (default "start") to begin recording and again to
stop; the session replaces the previous recording atomically. Send the
transmit trigger (default "X") to replay the latest recording on the output
channel. Sending it during playback restarts from the beginning.

Configure via $HOME/.copycat/config.toml, COPYCAT_* environment variables,
or flags (flags win).
`

var exampleUsage = strings.TrimSpace(`
  copycat --transport websocket --url ws://localhost:9090/joy
  printf 'start\nfwd\nleft\nstart\n' | copycat --once
  copycat --store sqlite --log-path /var/lib/copycat/commands.db
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger(cfg.LogLevel)

	root := &cobra.Command{
		Use:          "copycat",
		Short:        "Record and replay timestamped control commands",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			// Environment overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = cliconfig.Logger(cfg.LogLevel)
			logger.Info().Interface("config", cfg).Msg("configuration")

			opts := []copycat.Option{
				copycat.WithLogger(log.NewZerologAdapterWithLogger(logger)),
			}
			if cfg.WatchLog {
				opts = append(opts, logwatcher.WithLogWatcher(logwatcher.DefaultConfig()))
			}

			c, err := copycat.New(copycat.Config{
				LogPath:         cfg.LogPath,
				Store:           cfg.Store,
				Transport:       cfg.Transport,
				URL:             cfg.URL,
				RecordTrigger:   cfg.RecordTrigger,
				TransmitTrigger: cfg.TransmitTrigger,
				TickInterval:    cfg.TickInterval,
				DialTimeout:     cfg.DialTimeout,
				Once:            cfg.Once,
			}, opts...)
			if err != nil {
				return fmt.Errorf("create copycat: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := c.Start(ctx); err != nil {
				return fmt.Errorf("start copycat: %w", err)
			}

			// Poll for completion (once mode or crash)
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := c.Status()
						if status == copycat.StateStopped || status == copycat.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			case <-doneCh:
				if c.Status() == copycat.StateCrashed {
					return errors.New("copycat crashed")
				}
			}

			if err := c.Stop(); err != nil && !errors.Is(err, copycat.ErrNotRunning) {
				return fmt.Errorf("stop copycat: %w", err)
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.copycat/config.toml)")
	flags.StringVar(&cfg.LogPath, "log-path", cfg.LogPath, "recording location (default: $HOME/.copycat/commands.log or commands.db)")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "recording store: file or sqlite")
	flags.StringVar(&cfg.Transport, "transport", cfg.Transport, "input/output channel: stdio or websocket")
	flags.StringVar(&cfg.URL, "url", cfg.URL, "joypad bridge URL for the websocket transport")
	flags.StringVar(&cfg.RecordTrigger, "record-trigger", cfg.RecordTrigger, "payload that toggles recording")
	flags.StringVar(&cfg.TransmitTrigger, "transmit-trigger", cfg.TransmitTrigger, "payload that starts playback")
	flags.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "playback polling interval")
	flags.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "websocket dial timeout")
	flags.BoolVar(&cfg.WatchLog, "watch-log", cfg.WatchLog, "reload the recording when the log file changes on disk (file store only)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flags.BoolVar(&cfg.Once, "once", cfg.Once, "exit when the input channel closes and playback has finished")
	if err := flags.MarkHidden("dial-timeout"); err != nil {
		logger.Info().Err(err).Msg("failed to hide dial-timeout flag")
	}

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("copycat")
		os.Exit(1)
	}
}
