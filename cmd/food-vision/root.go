package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/onnx"
	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

// EnvLogLevel sets the default log level.
const EnvLogLevel = "FOOD_VISION_LOG_LEVEL"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	log := logrus.New()

	cmd := &cobra.Command{
		Use:   "food-vision",
		Short: "Food detection and classification over MCP",
		Long: `food-vision detects food items in an image, classifies each item with
the model for its category and reports one result per distinct food.

Run "food-vision serve" to expose the pipeline as an MCP server on stdio, or
"food-vision recognize <image>" for a one-off run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(log, opts)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("food-vision {{.Version}}\n  Build time: %s\n  Git commit: %s\n", BuildTime, GitCommit))

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "pipeline config file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigFile+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default $"+EnvLogLevel+" or info)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(
		newServeCmd(opts, log),
		newRecognizeCmd(opts, log),
		newGroupsCmd(opts, log),
	)
	return cmd
}

// configureLogger sends logs to stderr; stdout carries MCP traffic and
// command output.
func configureLogger(log *logrus.Logger, opts *rootOptions) error {
	log.SetOutput(os.Stderr)

	level := opts.logLevel
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(opts.logFormat) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", opts.logFormat)
	}
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

// buildPipeline loads every model named in cfg. The returned cleanup releases
// the sessions and the runtime.
func buildPipeline(cfg *config.Config, log *logrus.Logger) (*recognition.Pipeline, func(), error) {
	if err := onnx.InitEnvironment(cfg.Runtime, log); err != nil {
		return nil, nil, err
	}

	det, err := onnx.LoadDetector(cfg.Detection, cfg.Runtime, log)
	if err != nil {
		_ = onnx.DestroyEnvironment()
		return nil, nil, fmt.Errorf("load detector: %w", err)
	}

	pool := recognition.LoadClassifierPool(cfg.Classifiers, onnx.ClassifierLoader(cfg.Runtime, log), log)

	cleanup := func() {
		err := errors.Join(pool.Close(), det.Close(), onnx.DestroyEnvironment())
		if err != nil {
			log.WithError(err).Warn("cleanup failed")
		}
	}

	p, err := recognition.New(cfg, det, pool, recognition.WithLogger(log))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}
