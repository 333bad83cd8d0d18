package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/contact"
	lambdaadapter "github.com/pr-poehali-dev/cad-engineer-website/pkg/lambda"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/mail"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/system"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/version"
)

// Config customises the command tree. Zero values select the production behaviour.
type Config struct {
	OutputWriter io.Writer
	// Logger replaces the logger built from --debug.
	Logger *zap.Logger
	// Sender replaces the SMTP sender built from the delivery configuration.
	Sender mail.Sender
	// StartLambda replaces the AWS Lambda runtime loop.
	StartLambda func(*lambdaadapter.Handler)
}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		StartLambda:  lambdaadapter.Start,
	}
}

type runtimeState struct {
	flags  GlobalFlags
	writer io.Writer
	sender mail.Sender
	start  func(*lambdaadapter.Handler)

	log *zap.Logger
	cfg config.Config
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		writer: cfg.OutputWriter,
		sender: cfg.Sender,
		start:  cfg.StartLambda,
		log:    cfg.Logger,
	}
	if rt.start == nil {
		rt.start = lambdaadapter.Start
	}

	root := &cobra.Command{
		Use:           "contactform",
		Short:         "Contact form relay for the cadastral engineering website",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = cmd.OutOrStdout()
			}
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return rt.setup()
		},
	}

	rt.flags.Bind(root.PersistentFlags())

	root.AddCommand(
		newServeCommand(rt),
		newLambdaCommand(rt),
		newSendTestCommand(rt),
		newVersionCommand(rt),
	)

	return root
}

// setup loads the .env file and the configuration and builds the logger.
func (rt *runtimeState) setup() error {
	if err := config.LoadDotEnv(rt.flags.EnvFile); err != nil {
		return err
	}

	if rt.log == nil {
		log, err := system.NewLogger(rt.flags.Debug)
		if err != nil {
			return fmt.Errorf("failed to set up logger: %w", err)
		}
		rt.log = log
	}

	cfg, err := config.Load(rt.flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	rt.cfg = cfg

	rt.sugar().Infow("Starting contactform", version.GetBuildInfo().Fields()...)
	if !cfg.Delivery.Complete() {
		// Not fatal: every submission is answered with a configuration error until fixed.
		rt.sugar().Warnw("Email delivery is not configured", "missing", cfg.Delivery.Missing())
	}
	return nil
}

func (rt *runtimeState) sugar() *zap.SugaredLogger {
	return rt.log.Sugar()
}

func (rt *runtimeState) contactHandler() *contact.Handler {
	return contact.NewHandler(rt.cfg.Delivery, rt.sender, rt.sugar())
}

// ExitError carries the exit code of a command that ran but did not succeed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}
