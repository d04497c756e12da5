package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/williamokano/s3transfer/pkg/config"
	"github.com/williamokano/s3transfer/pkg/logger"
	"github.com/williamokano/s3transfer/pkg/notify"
	"github.com/williamokano/s3transfer/pkg/storage"
	"github.com/williamokano/s3transfer/pkg/transfer"

	// Import transports to register them
	_ "github.com/williamokano/s3transfer/pkg/notify/ses"
	_ "github.com/williamokano/s3transfer/pkg/notify/smtp"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type flags struct {
	configFile   string
	bucket       string
	key          string
	archiveName  string
	storageType  string
	prefix       string
	endpoint     string
	profile      string
	handler      string
	logLevel     string
	mailTo       string
	notify       bool
	removeSource bool
	keepSource   bool
}

var opts flags

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "s3transfer [flags] SOURCE",
	Short: "Compress a file or directory and upload it to object storage",
	Long: `s3transfer packs a file or directory into a .tar.gz archive next to it,
uploads the archive to a bucket and optionally removes the source.
With --notify an operator is e-mailed on success or failure.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("s3transfer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

var validateCmd = &cobra.Command{
	Use:          "validate CONFIG",
	Short:        "Validate a config file against the JSON schema",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Validate(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "config file path (JSON)")
	f.StringVar(&opts.bucket, "bucket", "", "destination bucket")
	f.StringVar(&opts.key, "key", "", "object key (default: archive file name)")
	f.StringVar(&opts.archiveName, "archive-name", "", "archive name or path (default: SOURCE.tar.gz)")
	f.StringVar(&opts.storageType, "storage-type", "", "storage backend ("+strings.Join(storage.RegisteredTypes(), ", ")+")")
	f.StringVar(&opts.prefix, "prefix", "", "object key prefix")
	f.StringVar(&opts.endpoint, "endpoint", "", "S3-compatible endpoint or ssh host[:port]")
	f.StringVar(&opts.profile, "profile", "", "credential profile")
	f.StringVar(&opts.handler, "handler", "", "log handler: console, file, rotation")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&opts.mailTo, "mail-to", "", "comma separated notification recipients")
	f.BoolVar(&opts.notify, "notify", false, "e-mail the configured recipients on success or failure")
	f.BoolVar(&opts.removeSource, "remove-source", false, "remove SOURCE after the upload stage")
	f.BoolVar(&opts.keepSource, "keep-source", false, "keep SOURCE after the upload stage")
	rootCmd.MarkFlagsMutuallyExclusive("remove-source", "keep-source")

	rootCmd.AddCommand(versionCmd, validateCmd)
}

// applyFlags overrides file values with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	changed := cmd.Flags().Changed

	if changed("bucket") {
		cfg.Storage.Bucket = opts.bucket
	}
	if changed("storage-type") {
		cfg.Storage.Type = opts.storageType
	}
	if changed("prefix") {
		cfg.Storage.Prefix = opts.prefix
	}
	if changed("endpoint") {
		cfg.Storage.Endpoint = opts.endpoint
	}
	if changed("profile") {
		cfg.Credential.Profile = opts.profile
	}
	if changed("key") {
		cfg.Transfer.KeyName = opts.key
	}
	if changed("archive-name") {
		cfg.Transfer.ArchiveName = opts.archiveName
	}
	if changed("handler") {
		cfg.Log.Handler = opts.handler
	}
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("mail-to") {
		cfg.Notification.To = notify.SplitAddresses(opts.mailTo)
	}
	if changed("notify") {
		cfg.Notification.Enabled = opts.notify
	}
	if changed("remove-source") {
		v := opts.removeSource
		cfg.Transfer.RemoveSource = &v
	}
	if changed("keep-source") {
		v := !opts.keepSource
		cfg.Transfer.RemoveSource = &v
	}

	return cfg
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	cfg = applyFlags(cmd, cfg)
	if err := cfg.Check(); err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("config_file", opts.configFile).
		Str("version", version).
		Str("source", args[0]).
		Msg("starting s3transfer")

	wfOpts := transfer.Options{
		Storage:      cfg.StorageConfig(),
		RemoveSource: cfg.Transfer.RemoveSource,
		Logger:       log,
	}

	if cfg.Notification.Enabled {
		notifier, err := notify.New(ctx, cfg.NotifySettings())
		if err != nil {
			log.Error().Err(err).Msg("failed to create notifier")
			return err
		}
		wfOpts.Notifier = notifier
	}

	wf := transfer.New(ctx, wfOpts)
	defer wf.Close()

	archivePath, err := wf.Transfer(ctx, args[0], cfg.Transfer.KeyName, cfg.Transfer.ArchiveName)
	if err != nil {
		log.Error().Err(err).Str("archive", archivePath).Msg("s3transfer failed")
		return err
	}

	log.Info().Str("archive", archivePath).Msg("s3transfer completed successfully")
	return nil
}
