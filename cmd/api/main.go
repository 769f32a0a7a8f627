package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bunker-server/internal/server"
)

const releaseVersion = "1.0.0"

func main() {
	cobra.CheckErr(newCmd().Execute())
}

// newCmd binds every flag to a BUNKER_-prefixed environment variable, so the
// server configures the same way from a shell, a .env file, or a container
// manifest.
func newCmd() *cobra.Command {
	cfg := server.Config{}

	v := viper.New()
	v.SetEnvPrefix("BUNKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "bunker-server",
		Short:         "WebSocket server for the Bunker social-deduction party game.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: BUNKER_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: BUNKER_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "externally reachable base URL, used in QR join links (env: BUNKER_PUBLIC_URL)")
	fs.StringVar(&cfg.StaticDir, "static-dir", "./static", "directory with the web client, empty to disable (env: BUNKER_STATIC_DIR)")
	fs.DurationVar(&cfg.RoomIdleTimeout, "room-idle-timeout", 24*time.Hour, "time before fully offline rooms are removed, 0 to disable (env: BUNKER_ROOM_IDLE_TIMEOUT)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 10, "max messages per second per connection (env: BUNKER_RATE_LIMIT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.SetVersionTemplate("bunker-server v{{.Version}}\n")

	return cmd
}

func run(cfg server.Config) error {
	srv := server.New(cfg)
	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(srv, httpServer, done)

	log.Printf("bunker-server v%s listening on %s", releaseVersion, httpServer.Addr)

	err := httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
	return nil
}

func gracefulShutdown(srv *server.Server, httpServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutdown signal received, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error closing live connections: %v", err)
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown with error: %v", err)
	}

	done <- true
}
