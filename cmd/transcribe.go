package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speechcore/whispersrv/internal/conf"
	"github.com/speechcore/whispersrv/internal/engine"
	"github.com/speechcore/whispersrv/internal/logging"
	"github.com/speechcore/whispersrv/internal/metrics"
	"github.com/speechcore/whispersrv/internal/pipeline"
	"github.com/speechcore/whispersrv/internal/segment"
)

var transcribeLanguage string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [url]",
	Short: "Run one transcription request against the local artifact directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := conf.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		logging.Init()

		eng, err := engine.Default(settings.Engine.ArtifactsDir, settings.Engine.ModelSize)
		if err != nil {
			return fmt.Errorf("initializing engine: %w", err)
		}

		newSeg := func(srcPath, workDir string, bounds []segment.ChunkBounds) pipeline.ChunkIterator {
			return pipeline.DefaultSegmenter(srcPath, workDir, bounds)
		}

		p := pipeline.New(eng, pipeline.DefaultProbe, pipeline.DefaultDecode, newSeg, metrics.NoOpRecorder{}, settings)

		result, err := p.Run(context.Background(), pipeline.Request{SourceURL: args[0], Language: transcribeLanguage})
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}

		fmt.Println(result.Text)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeLanguage, "language", "", "language hint, defaults to the configured language")
}
