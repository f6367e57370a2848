package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speechcore/whispersrv/internal/conf"
	"github.com/speechcore/whispersrv/internal/engine"
	"github.com/speechcore/whispersrv/internal/httpapi"
	"github.com/speechcore/whispersrv/internal/logging"
	"github.com/speechcore/whispersrv/internal/metrics"
	"github.com/speechcore/whispersrv/internal/pipeline"
	"github.com/speechcore/whispersrv/internal/segment"

	"github.com/prometheus/client_golang/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP transcription server",
	RunE: func(_ *cobra.Command, _ []string) error {
		settings, err := conf.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		logging.Init()

		eng, err := engine.Default(settings.Engine.ArtifactsDir, settings.Engine.ModelSize)
		if err != nil {
			logging.Fatal("failed to initialize engine", "error", err)
		}

		recorder := metrics.NewPromRecorder(prometheus.DefaultRegisterer)

		newSeg := func(srcPath, workDir string, bounds []segment.ChunkBounds) pipeline.ChunkIterator {
			return pipeline.DefaultSegmenter(srcPath, workDir, bounds)
		}

		p := pipeline.New(eng, pipeline.DefaultProbe, pipeline.DefaultDecode, newSeg, recorder, settings)
		server := httpapi.NewServer(p, settings, eng)

		logging.Info("starting server", "address", settings.Server.BindAddress)
		return server.Start(settings.Server.BindAddress)
	},
}
