package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/bookweave/internal/stream"
)

// PreviewCommand returns the preview command
func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Read a streaming LLM response from stdin and show field-by-field progress",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Bytes to consume per read",
				Value: 256,
			},
		},
		Action: runPreview,
	}
}

func runPreview(c *cli.Context) error {
	if _, _, err := setup(c); err != nil {
		return err
	}

	sessionID := uuid.New().String()
	log.Info().Str("session", sessionID).Msg("Preview session started")

	// The extractor re-scans the whole buffer per chunk, so progress output
	// is throttled rather than printed for every read.
	limiter := rate.NewLimiter(rate.Limit(5), 1)

	var buf []byte
	chunk := make([]byte, c.Int("chunk-size"))
	reported := map[string]bool{}

	for {
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			snap := stream.Extract(string(buf))

			for name := range snap.CompleteFields {
				if !reported[name] {
					reported[name] = true
					log.Info().Str("session", sessionID).Str("field", name).Msg("Field complete")
				}
			}
			if snap.InFieldName != "" && limiter.Allow() {
				log.Debug().
					Str("session", sessionID).
					Str("field", snap.InFieldName).
					Int("partial_bytes", len(snap.PartialValue)).
					Msg("Field streaming")
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}

	final := stream.Extract(string(buf))

	fields := make([]string, 0, len(final.CompleteFields))
	for name := range final.CompleteFields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	log.Info().Str("session", sessionID).Strs("fields", fields).Msg("Preview session finished")

	out, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
