package conf

import "github.com/spf13/viper"

// envBinding pairs a viper config key with the environment variable that
// feeds it, following the teacher's bindEnvVars convention.
type envBinding struct {
	ConfigKey string
	EnvVar    string
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"server.bindaddress", "WHISPER_BIND_ADDRESS"},
		{"server.apikey", "WHISPER_API_KEY"},

		{"log.level", "WHISPER_LOG_LEVEL"},
		{"log.path", "WHISPER_LOG_PATH"},

		{"engine.modelsize", "WHISPER_MODEL_SIZE"},
		{"engine.artifactsdir", "WHISPER_ARTIFACTS_DIR"},
		{"engine.languagehint", "WHISPER_LANGUAGE_DEFAULT"},

		{"segment.chunkingenabled", "WHISPER_CHUNK_ENABLED"},
		{"segment.chunkduration", "WHISPER_CHUNK_DURATION_S"},
		{"segment.chunkoverlap", "WHISPER_CHUNK_OVERLAP_S"},
		{"segment.fastpaththreshold", "WHISPER_FAST_PATH_THRESHOLD_S"},

		{"timeouts.connecttimeout", "WHISPER_CONNECT_TIMEOUT_S"},
		{"timeouts.chunktimeout", "WHISPER_CHUNK_TIMEOUT_S"},
		{"timeouts.realtimefactor", "WHISPER_REALTIME_FACTOR"},
		{"timeouts.minrequesttimeout", "WHISPER_MIN_REQUEST_TIMEOUT_S"},

		{"upload.maxsizemb", "MAX_UPLOAD_SIZE_MB"},
		{"upload.tempdir", "TEMP_DIR"},
	}
}

// bindEnvVars wires every environment variable into viper's lookup chain
// ahead of reading values out of it.
func bindEnvVars(v *viper.Viper) error {
	for _, b := range getEnvBindings() {
		if err := v.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			return err
		}
	}
	return nil
}
