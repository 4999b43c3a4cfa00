package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/config"
	"github.com/mapsketch/mapsketch/internal/logger"
	"github.com/mapsketch/mapsketch/internal/server"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string `short:"c" long:"config"        env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr         string `short:"a" long:"addr"          env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port         int    `short:"p" long:"port"          env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	HistoryLimit int    `short:"H" long:"history-limit" env:"HISTORY_LIMIT"  description:"Undo snapshots kept"        default:"100"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.HistoryLimit > 0 {
		cfg.HistoryLimit = opts.HistoryLimit
	}

	srvCtx := server.NewServerContext(cfg)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/basemaps", srvCtx.HandleBasemaps)
	mux.HandleFunc("/api/search", srvCtx.HandleSearch)
	mux.HandleFunc("/api/sessions", srvCtx.HandleSessions)
	mux.HandleFunc("/api/sessions/", srvCtx.HandleSessionOp)
	mux.HandleFunc("/ws/sessions/", srvCtx.HandleSocket)
	mux.HandleFunc("/tiles/", srvCtx.HandleTile)
	mux.HandleFunc("/", srvCtx.HandleIndex)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("basemaps_loaded", len(cfg.Basemaps)).
		Int("history_limit", cfg.HistoryLimit).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
