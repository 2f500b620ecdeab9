package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/julianlk522/snapsquare/config"
	"github.com/julianlk522/snapsquare/handler"
	m "github.com/julianlk522/snapsquare/middleware"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

func NewServeCommand(fs afero.Fs, v *viper.Viper) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			setupLogging(cfg.Log)

			return Serve(cmd.Context(), cfg, fs)
		},
	}

	flags := serveCmd.Flags()
	flags.String("addr", "", "listen address (default :8080)")
	flags.String("profile", "", `"store" keeps uploads as-is, "normalize" squares them (default normalize)`)
	flags.String("upload-dir", "", "directory uploads are written to (default uploads)")
	flags.Int64("max-bytes", 0, "largest accepted request body in bytes (default 16 MiB)")
	flags.Int("image-size", 0, "side of the square output in normalize mode (default 224)")
	flags.Int("image-quality", 0, "JPEG quality in normalize mode (default 95)")
	flags.Bool("results", false, "serve the /results page")

	v.BindPFlag("server.addr", flags.Lookup("addr"))
	v.BindPFlag("profile", flags.Lookup("profile"))
	v.BindPFlag("upload.dir", flags.Lookup("upload-dir"))
	v.BindPFlag("upload.max_bytes", flags.Lookup("max-bytes"))
	v.BindPFlag("image.size", flags.Lookup("image-size"))
	v.BindPFlag("image.quality", flags.Lookup("image-quality"))
	v.BindPFlag("views.results", flags.Lookup("results"))

	return serveCmd
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	env_file, _ := cmd.Flags().GetString("env-file")
	if env_file != "" {
		if err := config.LoadDotEnv(env_file); err != nil {
			return nil, err
		}
	}

	if config_file, _ := cmd.Flags().GetString("config"); config_file != "" {
		v.SetConfigFile(config_file)
	}

	return config.Load(v)
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// Serve runs the HTTP server until ctx is done or SIGINT/SIGTERM arrives.
func Serve(ctx context.Context, cfg *config.Config, fs afero.Fs) error {
	h, err := handler.New(cfg, fs)
	if err != nil {
		return err
	}

	log_formatter, err := m.NewSplitLogFormatter(log.Logger, cfg.Log.ErrorFile)
	if err != nil {
		return err
	}
	defer log_formatter.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h.Router(log_formatter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdown_ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()

	return srv.Shutdown(shutdown_ctx)
}
