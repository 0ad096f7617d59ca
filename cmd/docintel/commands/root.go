package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/docintel-backend/internal/platform/envutil"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type rootOptions struct {
	envFile string
	logMode string
	quiet   bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docintel",
		Short: "Document intelligence backend",
		Long: `DocIntel highlights and summarizes PDF, DOCX and PPTX documents.

Run "docintel serve" for the HTTP API and background processor, "docintel analyze"
to process a single file, or "docintel watch" to process files as they land in a
directory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine; the environment may already be set.
			if opts.envFile != "" {
				_ = godotenv.Load(opts.envFile)
				return
			}
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load settings from this file instead of ./.env")
	cmd.PersistentFlags().StringVar(&opts.logMode, "log-mode", "", "logger mode: development or production (default $LOG_MODE)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "discard log output")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) logger() (*logger.Logger, error) {
	if o.quiet {
		return logger.Nop(), nil
	}
	mode := o.logMode
	if mode == "" {
		mode = envutil.String("LOG_MODE", "development")
	}
	return logger.New(mode)
}
