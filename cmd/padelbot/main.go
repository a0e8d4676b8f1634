package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"padelbot/internal/bot"
	"padelbot/internal/config"
	"padelbot/internal/events"
	"padelbot/internal/ics"
	"padelbot/internal/jobs"
	appLog "padelbot/internal/log"
	"padelbot/internal/monitor"
	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
	"padelbot/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags flagConfig

	root := &cobra.Command{
		Use:           "padelbot",
		Short:         "Court booking assistant: visit schedule, chat commands and availability monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := serve(cmd.Context(), flags)
			if err != nil {
				appLog.Error("padelbot failed", err)
			}
			appLog.Sync()
			return err
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/padelbot/config.yaml", "Path to config file")
	root.Flags().StringVar(&flags.listen, "listen", "", "HTTP listen address (overrides config if set)")
	root.Flags().StringVar(&flags.envFile, "env-file", ".env", "Optional dotenv file loaded before the config")

	root.AddCommand(newParseCmd())
	return root
}

func newParseCmd() *cobra.Command {
	var nowFlag, icsPath string

	cmd := &cobra.Command{
		Use:   "parse <text...> | parse --ics <file>",
		Short: "Resolve a booking sentence, or list the visits of an exported calendar",
		Args: func(cmd *cobra.Command, args []string) error {
			if icsPath != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if icsPath != "" {
				return printCalendar(cmd.OutOrStdout(), icsPath)
			}

			now := time.Now()
			if nowFlag != "" {
				t, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				now = t
			}

			text := strings.Join(args, " ")
			res, err := timeparse.NewParser(nil).Resolve(text, now)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "не удалось распознать %q: %v\n", text, err)
				return err
			}
			start, end := res.Interval()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s-%s\n%s\n%s\n",
				start.Format("02.01.2006"), res.Start, res.End,
				start.Format(time.RFC3339), end.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&nowFlag, "now", "", "Reference time in RFC3339 (default: current time)")
	cmd.Flags().StringVar(&icsPath, "ics", "", "Read visits from an .ics file (as served by /api/visits.ics)")
	return cmd
}

// printCalendar decodes an exported calendar and prints one visit per line.
func printCalendar(w io.Writer, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	visits, err := ics.Decode(body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, v := range visits {
		fmt.Fprintf(w, "%s %s %q\n", v.DateString(), v.TimeRangeString(), v.OriginalText)
	}
	return nil
}

func serve(parent context.Context, flags flagConfig) error {
	conf, err := config.Resolve(flags.configPath, flags.envFile)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return err
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	if err := appLog.Init(appLog.Options{Level: appLog.Level(conf.Log.Level), Format: conf.Log.Format}); err != nil {
		return err
	}
	appLog.Info("padelbot starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"chat_id", conf.ChatID,
		"horizon_days", conf.HorizonDays,
		"prune_schedule", conf.PruneSchedule,
		"monitor_enabled", conf.Monitor.Enabled,
		"monitor_schedule", conf.Monitor.Schedule,
		"nats", conf.NATS.URL != "",
		"basic_auth", conf.BasicAuth != nil,
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if conf.NATS.URL != "" {
		p, err := events.NewNATSPublisher(conf.NATS.URL)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLog.Error("failed to close event publisher", err)
		}
	}()

	store := visit.NewStore(timeparse.NewParser(nil))
	handler := bot.NewHandler(store, publisher, bot.Options{
		ChatID:      conf.ChatID,
		BotUsername: conf.BotUsername,
		HorizonDays: conf.HorizonDays,
	})

	scheduler := jobs.New(ctx)
	if err := scheduler.AddPrune(store, conf.PruneSchedule, nil); err != nil {
		return err
	}
	if conf.Monitor.Enabled {
		m := monitor.New(monitor.Options{
			AgentURL:    conf.Monitor.AgentURL,
			EventURL:    conf.Monitor.EventURL,
			SessionsURL: conf.Monitor.SessionsURL,
			Days:        conf.Monitor.Days,
			Publisher:   publisher,
		})
		appLog.Info("monitor status", "summary", m.Status())
		if err := scheduler.AddMonitor(m, conf.Monitor.Schedule); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return web.NewServer(conf, store, handler).Run(gctx)
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		return scheduler.Stop(stopCtx)
	})

	err = g.Wait()
	appLog.Info("padelbot exiting")
	return err
}
