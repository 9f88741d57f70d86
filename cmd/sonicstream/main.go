package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dooshek/sonicstream/internal/audio"
	"github.com/dooshek/sonicstream/internal/config"
	"github.com/dooshek/sonicstream/internal/fileops"
	"github.com/dooshek/sonicstream/internal/logger"
	"github.com/dooshek/sonicstream/internal/metrics"
	"github.com/dooshek/sonicstream/internal/stats"
	"github.com/dooshek/sonicstream/internal/tts"
	"github.com/dooshek/sonicstream/pkg/wav"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func init() {
	// Show flags with the -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  --%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if len(name) > 0 {
				fmt.Fprintf(out, " %s", name)
			}
			fmt.Fprintf(out, "\n    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Fprintf(out, " (default %q)", f.DefValue)
			}
			fmt.Fprintf(out, "\n")
		})
	}
}

type options struct {
	text        string
	file        string
	passage     string
	configPath  string
	logLevel    string
	logFilename string
	metricsAddr string
	printAudio  bool
	saveConfig  bool
	showStats   bool
	statsJSON   bool
	resetStats  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.text, "text", "", "Text to synthesize")
	flag.StringVar(&opts.file, "file", "", "Read the text to synthesize from a file (- for stdin)")
	flag.StringVar(&opts.passage, "passage", "", "Synthesize a built-in sample passage (list to show names)")
	flag.StringVar(&opts.configPath, "config", "", "Config file path (default ~/.config/sonicstream/sonicstream.yaml)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Set log level (debug|info|warn|error)")
	flag.StringVar(&opts.logFilename, "log-filename", "", "Log to file instead of stderr")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while streaming, e.g. :9090")
	flag.BoolVar(&opts.printAudio, "print-audio", false, "Print every audio container to stdout as a base64 line")
	flag.BoolVar(&opts.saveConfig, "save-config", false, "Save the effective TTS settings to the config directory and exit")
	flag.BoolVar(&opts.showStats, "stats", false, "Show per-model usage stats and exit")
	flag.BoolVar(&opts.statsJSON, "stats-json", false, "Show per-model usage stats as JSON and exit")
	flag.BoolVar(&opts.resetStats, "reset-stats", false, "Clear the stored usage stats and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.passage == "list" {
		for _, name := range passageNames() {
			fmt.Println(name)
		}
		return nil
	}

	if opts.logLevel != "" {
		logger.SetLevel(opts.logLevel)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.GetLogConfig()
	if opts.logLevel == "" {
		logger.SetLevel(logCfg.Level)
	}
	logFilename := opts.logFilename
	if logFilename == "" {
		logFilename = logCfg.Filename
	}
	if logFilename != "" {
		if err := logger.SetOutputFile(logFilename); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		defer logger.CloseLogFile()
	}

	if opts.showStats || opts.statsJSON || opts.resetStats {
		fileOps, err := fileops.NewDefaultFileOps()
		if err != nil {
			return fmt.Errorf("failed to initialize file operations: %w", err)
		}
		sm := stats.NewStatsManager(fileOps)
		if opts.resetStats {
			if err := sm.Reset(); err != nil {
				return err
			}
			logger.Info("Usage stats cleared")
		}
		if opts.statsJSON {
			return printStatsJSON(os.Stdout, sm)
		}
		if opts.showStats {
			printStats(os.Stdout, sm.GetStats())
		}
		return nil
	}

	if opts.saveConfig {
		if err := config.SaveConfig(cfg); err != nil {
			return err
		}
		logger.Info("Configuration saved")
		return nil
	}

	text, err := resolveText(opts.text, opts.file, opts.passage)
	if err != nil {
		return err
	}

	metricsAddr := opts.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if metricsAddr != "" {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	}

	ttsCfg := cfg.GetTTSConfig()
	stop := tts.NewStopSignal()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	session, err := tts.Start(context.Background(), text, ttsCfg, tts.WithStopSignal(stop), tts.WithMetrics(m))
	if err != nil {
		return err
	}
	logger.Infof("🔊 Streaming %s with voice %s (context %s)", ttsCfg.ModelID, ttsCfg.VoiceID, session.ContextID())

	go func() {
		select {
		case <-sigCh:
			logger.Info("Interrupt received, stopping after the current message")
			stop.Stop()
		case <-session.Done():
		}
	}()

	var synthesized time.Duration
	g := new(errgroup.Group)

	g.Go(func() error {
		for c := range session.Audio() {
			synthesized += c.Duration
			renderContainer(os.Stderr, c)
			if opts.printAudio {
				fmt.Println(c.Base64())
			}
		}
		return nil
	})

	g.Go(func() error {
		for st := range session.Status() {
			renderStatus(os.Stderr, st)
		}
		return nil
	})

	if reg != nil {
		srv := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		}
		g.Go(func() error {
			logger.Infof("Serving metrics on %s/metrics", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-session.Done()
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		stop.Stop()
		session.Wait()
		return err
	}

	final := session.Wait()
	recordStats(ttsCfg.ModelID, final, synthesized)

	if final.State == tts.StateError {
		return session.Err()
	}
	return nil
}

// renderContainer prints a one-line summary read back from the container
// header. Draining must go on even if a container cannot be inspected.
func renderContainer(w io.Writer, c audio.Container) {
	info, err := wav.Inspect(c.Data)
	if err != nil {
		logger.Warnf("Container %d could not be inspected: %v", c.Seq, err)
		return
	}
	color.New(color.FgCyan).Fprintf(w, "♪ #%-3d", c.Seq)
	fmt.Fprintf(w, " %6.2fs  %d Hz  %d-bit  peak %6.1f dBFS\n",
		info.Duration.Seconds(), info.SampleRate, info.BitDepth, audio.PeakDBFS(c.Peak))
}

func renderStatus(w io.Writer, st tts.Status) {
	var c *color.Color
	switch st.State {
	case tts.StateDone:
		c = color.New(color.FgGreen, color.Bold)
	case tts.StateStopped:
		c = color.New(color.FgYellow, color.Bold)
	case tts.StateError:
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.Faint)
	}
	c.Fprintf(w, "[%s]\n", st)
}

func recordStats(model string, final tts.Status, synthesized time.Duration) {
	if final.State == tts.StateError && synthesized == 0 {
		return
	}
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		logger.Warnf("Skipping usage stats: %v", err)
		return
	}
	if err := stats.NewStatsManager(fileOps).AddSession(model, synthesized.Seconds()); err != nil {
		logger.Error("Failed to save stats", err)
	}
}

func printStatsJSON(w io.Writer, sm *stats.StatsManager) error {
	data, err := sm.GetStatsJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, data)
	return err
}

func printStats(w io.Writer, st stats.Stats) {
	if len(st.Models) == 0 {
		fmt.Fprintln(w, "No sessions recorded yet")
		return
	}
	models := make([]string, 0, len(st.Models))
	for model := range st.Models {
		models = append(models, model)
	}
	sort.Strings(models)

	for _, model := range models {
		ms := st.Models[model]
		color.New(color.FgCyan).Fprintf(w, "%-20s", model)
		fmt.Fprintf(w, " %5d sessions  %9.1fs synthesized\n", ms.SessionCount, ms.SynthesizedSeconds)
	}
}
