// Command chatpack packs a normalized JSON chat export into an analytics
// dataset: a bit-packed message blob plus a JSON summary report.
//
// Usage:
//
//	chatpack --input export.json --output myserver --compression zstd
//
// writes myserver.blob and myserver.json. Flags can also be set through the
// environment with a CHATPACK_ prefix (CHATPACK_INPUT, ...).
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chatpack/chatpack"
	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/pipeline"
)

var compressionNames = map[string]format.CompressionType{
	"none": format.CompressionNone,
	"zstd": format.CompressionZstd,
	"s2":   format.CompressionS2,
	"lz4":  format.CompressionLZ4,
}

func main() {
	pflag.String("input", "", "path to the normalized JSON export")
	pflag.String("output", "report", "output prefix; writes <prefix>.blob and <prefix>.json")
	pflag.String("compression", "zstd", "payload compression: none, zstd, s2, lz4")
	pflag.Bool("verbose", false, "enable debug logging")
	pflag.Parse()

	viper.SetEnvPrefix("CHATPACK")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if viper.GetBool("verbose") {
		logger = logger.Level(zerolog.DebugLevel)
	}

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("packing failed")
	}
}

func run(logger zerolog.Logger) error {
	input := viper.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}

	compression, ok := compressionNames[viper.GetString("compression")]
	if !ok {
		return fmt.Errorf("unknown compression %q", viper.GetString("compression"))
	}

	db, err := loadExport(input)
	if err != nil {
		return err
	}

	logger.Info().
		Str("title", db.Title).
		Str("platform", db.Platform.String()).
		Int("channels", len(db.Channels)).
		Int("authors", len(db.Authors)).
		Msg("export loaded")

	result, err := chatpack.ProcessWithProgress(db, progressLogger(logger), blob.WithCompression(compression))
	if err != nil {
		return err
	}

	prefix := viper.GetString("output")
	if err := os.WriteFile(prefix+".blob", result.Blob, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}

	summary, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(prefix+".json", summary, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	logger.Info().
		Int("blob_bytes", len(result.Blob)).
		Int("messages", totalMessages(result.Report)).
		Str("blob", prefix+".blob").
		Str("summary", prefix+".json").
		Msg("dataset written")

	return nil
}

// progressLogger maps pipeline progress events onto log lines: stages at
// info, throttled progress at debug.
func progressLogger(logger zerolog.Logger) func(pipeline.Event) {
	stage := ""

	return func(ev pipeline.Event) {
		switch ev.Type {
		case pipeline.EventStageStart:
			stage = ev.Stage
			logger.Info().Msg(stage)
		case pipeline.EventProgress:
			logger.Debug().
				Str("stage", stage).
				Int("current", ev.Current).
				Int("total", ev.Total).
				Msg("progress")
		case pipeline.EventStageDone:
			logger.Debug().Str("stage", stage).Msg("stage done")
		}
	}
}

func totalMessages(report *pipeline.Report) int {
	total := 0
	for _, ch := range report.Channels {
		total += int(ch.MessageCount)
	}

	return total
}
