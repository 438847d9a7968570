package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskchat/taskchat/agent"
	"github.com/taskchat/taskchat/server"
	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
	"github.com/taskchat/taskchat/store/db"
)

const greetingBanner = `
 _            _        _           _
| |_ __ _ ___| | _____| |__   __ _| |_
| __/ _` + "`" + ` |/ __| |/ / __| '_ \ / _` + "`" + ` | __|
| || (_| \__ \   < (__| | | | (_| | |_
 \__\__,_|___/_|\_\___|_| |_|\__,_|\__|
`

var rootCmd = &cobra.Command{
	Use:   "taskchat",
	Short: "A conversational task-management service",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p, err := profile.GetProfile()
		if err != nil {
			slog.Error("failed to load profile", "err", err)
			return
		}
		driver, err := db.NewDriver(p)
		if err != nil {
			slog.Error("failed to create db driver", "err", err)
			return
		}
		if err := driver.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "err", err)
			return
		}
		st := store.New(driver)

		tasks := service.NewTaskService(st)
		ag := agent.NewLLMAgent(tasks, p.LLMBaseURL, p.LLMModel, p.LLMAPIKey)
		if p.LLMAPIKey == "" {
			slog.Warn("no LLM API key configured, chat requests will fail")
		}

		s := server.NewServer(p, st, ag)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig.String())
			s.Shutdown(ctx)
			cancel()
		}()

		printGreetings(p)
		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "err", err)
			cancel()
		}

		<-ctx.Done()
	},
}

func printGreetings(p *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on %s (driver: %s)\n", profile.Version, p.ListenAddr(), p.Driver)
}

func main() {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
