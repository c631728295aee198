package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"tapestry-archive/pkg/archiver"
	"tapestry-archive/pkg/auth"
	"tapestry-archive/pkg/config"
	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/ui"
	"tapestry-archive/pkg/ui/tui"
)

var (
	school          string
	cookieValue     string
	childName       string
	baseURL         string
	outputDir       string
	requestsPerMin  int
	downloadTimeout time.Duration
	skipVideos      bool
	skipImages      bool
	writeJournal    bool
	notifications   bool
	useTUI          bool
)

// errRunAborted is returned once the summary has already explained why
var errRunAborted = errors.New("archive run aborted")

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download every photo and video of the journal",
	Long: `Download every photo and video of the journal into the output folder.

Credentials are taken, in order, from:
  - the --school and --cookie flags
  - TAPESTRY_SCHOOL and TAPESTRY_COOKIE_VALUE (also read from .env)
  - the configuration file
  - accounts stored with 'tapestry-archive auth login'

Files already in the output folder are kept as they are. The command exits
with status 1 when the session is rejected or the run is aborted, and with
status 0 otherwise, even if single files failed.`,
	Example: `  # Use stored credentials
  tapestry-archive fetch

  # Explicit credentials and folder
  tapestry-archive fetch --school oak-tree --cookie "$COOKIE" -o ./journal

  # Photos only, with the dashboard
  tapestry-archive fetch --skip-videos --tui`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd.Flags())
	// fetch is also the default command
	addFetchFlags(rootCmd.Flags())
}

func addFetchFlags(fs *pflag.FlagSet) {
	fs.StringVar(&school, "school", "", "school slug from the journal URL (/s/<school>/...)")
	fs.StringVar(&cookieValue, "cookie", "", "value of the tapestry_session cookie")
	fs.StringVar(&childName, "name", "", "child's name for the journal heading")
	fs.StringVar(&baseURL, "base-url", "", "site root (default https://tapestryjournal.com)")
	fs.StringVarP(&outputDir, "output", "o", "", "output folder (default images)")
	fs.IntVar(&requestsPerMin, "requests-per-minute", 0, "request pacing (default 60)")
	fs.DurationVar(&downloadTimeout, "download-timeout", 0, "timeout for a single request (default 60s)")
	fs.BoolVar(&skipVideos, "skip-videos", false, "do not download videos")
	fs.BoolVar(&skipImages, "skip-images", false, "do not download photos")
	fs.BoolVar(&writeJournal, "journal", true, "write observations-info.md next to the files")
	fs.BoolVar(&notifications, "notifications", true, "notify when the run ends")
	fs.BoolVar(&useTUI, "tui", false, "use the interactive dashboard")
}

// fetchFlags collects the flags the user actually set
func fetchFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			flags[name] = value
		}
	}

	set("school", school)
	set("cookie", cookieValue)
	set("name", childName)
	set("base-url", baseURL)
	set("output", outputDir)
	set("requests-per-minute", requestsPerMin)
	set("download-timeout", downloadTimeout)
	set("skip-videos", skipVideos)
	set("skip-images", skipImages)
	set("journal", writeJournal)
	set("notifications", notifications)
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, fetchFlags(cmd.Flags()))
	if err != nil {
		return err
	}

	if !cfg.HasCredentials() {
		if manager, err := auth.NewManager(); err == nil {
			manager.Fill(cfg)
		}
	}
	if !cfg.HasCredentials() {
		return errors.New("no session cookie: run 'tapestry-archive auth login' or set TAPESTRY_SCHOOL and TAPESTRY_COOKIE_VALUE")
	}

	interactive := !quiet && stdoutIsTerminal()
	adjustLogging(cfg, cmd.Flags().Changed("log-level"), interactive)
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	arch, err := archiver.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"run_id": arch.RunID(),
		"school": cfg.Tapestry.School,
		"output": cfg.Output.BaseDirectory,
	}).Info("Starting archive run")

	var runErr error
	if useTUI && interactive {
		_, runErr = runWithTUI(ctx, arch, cfg)
	} else {
		if !quiet {
			ui.PrintInfo("School", cfg.Tapestry.School)
			ui.PrintInfo("Output", cfg.Output.BaseDirectory)
		}
		arch.SetObserver(ui.Tee(
			ui.NewProgressDisplay(ui.Output, cfg.Tapestry.Name, verbose, interactive),
			notifyObserver(cfg, ui.Output),
		))
		_, runErr = arch.Run(ctx)
	}

	if runErr != nil {
		log.WithError(runErr).Error("Archive run aborted")
		return errRunAborted
	}
	return nil
}

// adjustLogging keeps console logs from fighting with the progress line.
// An explicit --log-level or a log file leaves the level alone.
func adjustLogging(cfg *config.Config, levelFromFlag, interactive bool) {
	if levelFromFlag || verbose || !interactive || cfg.Logging.File != "" {
		return
	}
	if useTUI {
		cfg.Logging.Level = "disabled"
		return
	}
	cfg.Logging.Level = "error"
}

func notifyObserver(cfg *config.Config, out io.Writer) archiver.Observer {
	if !cfg.Notifications.Enabled {
		return archiver.NopObserver{}
	}
	return ui.NotifyOnFinish{Notifier: ui.NewNotifier(cfg.Notifications.NotificationType, out)}
}

// runWithTUI runs the dashboard on this goroutine and the pipeline on
// another. Quitting the dashboard cancels the run.
func runWithTUI(ctx context.Context, arch *archiver.Archiver, cfg *config.Config) (*archiver.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash := tui.NewTUI(cfg.Tapestry.Name, cancel)
	// the alternate screen hides terminal output, only desktop
	// notifications make sense here
	notify := archiver.Observer(archiver.NopObserver{})
	if cfg.Notifications.NotificationType == ui.NotifyDesktop {
		notify = notifyObserver(cfg, io.Discard)
	}
	arch.SetObserver(ui.Tee(dash, notify))

	type outcome struct {
		summary *archiver.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := arch.Run(ctx)
		done <- outcome{s, err}
	}()

	tuiErr := dash.Start()
	cancel()
	res := <-done

	if tuiErr != nil {
		return res.summary, fmt.Errorf("terminal UI failed: %w", tuiErr)
	}
	ui.PrintSummary(ui.Output, cfg.Tapestry.Name, res.summary, res.err)
	return res.summary, res.err
}
