// Package cmd implements the whispersrv command-line entrypoints: the
// HTTP server and a one-shot CLI transcription for smoke-testing the
// artifact directory without curl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whispersrv",
	Short: "Stateless speech-to-text transcription service",
	Long: `whispersrv downloads a remote audio URL, splits long recordings into
bounded chunks, runs a Whisper speech-recognition engine over each chunk
in order, and returns one merged transcript per request.`,
}

// Execute runs the root command, exiting the process on error exactly
// as the teacher's cmd/root.go does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transcribeCmd)
}
