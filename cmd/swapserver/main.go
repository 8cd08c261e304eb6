// Command swapserver runs the swap HTTP and websocket server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lk16/swap/pkg/api"
	"github.com/lk16/swap/pkg/engine"
)

const version = "0.1.0"

func main() {
	def := api.DefaultConfig()
	host := flag.String("host", def.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", def.Port, "Port to listen on")
	weightsFile := flag.String("weights", "", "Path to a weights file (default: built-in)")
	hashSize := flag.Int("hash-size", engine.DefaultHashSize, "Hash table entries")
	threads := flag.Int("threads", 1, "Root split workers per search (negative = all CPUs)")
	level := flag.Int("level", def.Level, "Level for requests and bots naming none")
	maxConcurrent := flag.Int("max-concurrent", def.MaxSlowWorkers, "Searches running at once")
	maxSearchTime := flag.Duration("max-search-time", def.MaxSearchTime, "Cap on the time of one search (0 = none)")
	queueTimeout := flag.Duration("queue-timeout", def.QueueTimeout, "Wait for a free search slot before answering 503 (0 = request lifetime)")
	readTimeout := flag.Duration("read-timeout", def.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", def.WriteTimeout, "HTTP write timeout")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	jsonLogs := flag.Bool("json-logs", false, "Log JSON instead of console output")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("swapserver v%s\n", version)
		os.Exit(0)
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	zerolog.SetGlobalLevel(lvl)
	if !*jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	}

	opts := engine.DefaultEngineOptions()
	opts.WeightsFile = *weightsFile
	opts.HashSize = *hashSize
	opts.Threads = *threads
	opts.Logger = &log.Logger
	eng, err := engine.NewEngine(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}
	log.Info().Int("hash_size", eng.Options().HashSize).Int("threads", eng.Options().Threads).Msg("engine ready")

	config := def
	config.Host = *host
	config.Port = *port
	config.Level = *level
	config.MaxSlowWorkers = *maxConcurrent
	config.MaxSearchTime = *maxSearchTime
	config.QueueTimeout = *queueTimeout
	config.ReadTimeout = *readTimeout
	config.WriteTimeout = *writeTimeout

	server := api.NewServer(eng, config, version)
	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
