// Command plumelog ships lines read from stdin to a Plumelog Redis queue.
// Configuration comes from PLUMELOG_* environment variables, with a few
// common options overridable by flag.
package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/CodingOX/plumelog-go/pkg/config"
	"github.com/CodingOX/plumelog-go/pkg/model"
	"github.com/CodingOX/plumelog-go/pkg/sink"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appName := flag.String("app-name", cfg.AppName, "application name attached to every record")
	redisAddr := flag.String("redis-addr", cfg.RedisAddr, "redis host:port")
	levelName := flag.String("level", "INFO", "severity assigned to shipped lines")
	flag.Parse()

	cfg.AppName = *appName
	cfg.RedisAddr = *redisAddr

	level, ok := model.ParseSeverity(*levelName)
	if !ok {
		log.Fatalf("Unknown severity: %s", *levelName)
	}

	s, err := sink.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create sink: %v", err)
	}
	if err := s.Start(); err != nil {
		log.Fatalf("Failed to start sink: %v", err)
	}

	go func() {
		for e := range s.Errors() {
			log.WithError(e.Err).Warnf("Delivery failed for %d records", e.Records)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	log.Infof("Shipping stdin to %s (queue %s). Press Ctrl+C to stop.", cfg.RedisAddr, cfg.QueueKey)

loop:
	for {
		select {
		case <-sigChan:
			break loop
		case line, open := <-lines:
			if !open {
				break loop
			}
			s.Enqueue(&model.LogRecord{Level: level, Message: line})
		}
	}

	log.Info("Draining...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := s.Close(ctx); err != nil {
		log.WithError(err).Warn("Shutdown finished with errors")
	}

	stats := s.Stats()
	log.Infof("Delivered %d records in %d batches, dropped %d.", stats.DeliveredRecords, stats.DeliveredBatches, stats.DroppedRecords+stats.ShutdownDropped)
}
