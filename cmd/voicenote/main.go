// Command voicenote serves the audio transcription API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/voicenote/app"
	"github.com/kbukum/voicenote/config"
	"github.com/kbukum/voicenote/version"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml (default: search standard locations)")
	envFile := flag.String("env", "", "path to a .env file (default: search standard locations)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return
	}

	if err := run(*configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "voicenote: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envFile string) error {
	opts := []config.LoaderOption{config.WithEnvPrefix("VOICENOTE")}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg app.Config
	if err := config.LoadConfig(app.ServiceName, &cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	ctx := context.Background()
	a, err := app.New(ctx, &cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
