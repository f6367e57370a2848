package conf

import "fmt"

// validateSettings rejects settings combinations that would make the
// pipeline unable to run, mirroring the teacher's validateSettings pass
// over the config struct after unmarshalling.
func validateSettings(s *Settings) error {
	if s.Engine.ArtifactsDir == "" {
		return fmt.Errorf("engine artifacts directory must not be empty")
	}
	switch s.Engine.ModelSize {
	case "small", "medium":
	default:
		return fmt.Errorf("engine model size must be one of small, medium; got %q", s.Engine.ModelSize)
	}
	if s.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d bytes", s.Upload.MaxSizeBytes)
	}
	if s.Segment.ChunkDuration <= 0 {
		return fmt.Errorf("chunk duration must be positive")
	}
	if s.Segment.ChunkOverlap < 0 || s.Segment.ChunkOverlap >= s.Segment.ChunkDuration {
		return fmt.Errorf("chunk overlap must be non-negative and smaller than the chunk duration")
	}
	if s.Timeouts.RealtimeFactor <= 0 {
		return fmt.Errorf("realtime factor must be positive, got %f", s.Timeouts.RealtimeFactor)
	}
	return nil
}
