package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/progress"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/solana"
)

var Version = "development"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(Version)
		return
	}

	if err := run(); err != nil {
		log.Error().Err(err).Msg("Token creation failed")
		os.Exit(1)
	}
}

func run() error {
	var flags Flags
	flags.Register(flag.CommandLine)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flags.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := flags.Config()
	if err != nil {
		return err
	}

	k, err := loadKeys(cfg)
	if err != nil {
		return err
	}

	spinner := progress.New(os.Stdout)
	defer spinner.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := solana.Connect(ctx, cfg.URL, cfg.WSURL)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := createToken(ctx, cfg, k, client, spinner)
	if err != nil {
		return err
	}

	log.Info().Str("mint", res.Mint.String()).Str("signature", res.Signature.String()).Msg("Done")

	return nil
}
