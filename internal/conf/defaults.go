package conf

import "github.com/spf13/viper"

// setDefaults installs the service's built-in defaults (spec §4.3, §5, §6)
// before environment variables are bound, so an unset var still resolves
// to a sane value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.bindaddress", "0.0.0.0:8080")
	v.SetDefault("server.apikey", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/whispersrv.log")

	v.SetDefault("engine.modelsize", "small")
	v.SetDefault("engine.artifactsdir", "/opt/whispersrv/artifacts")
	v.SetDefault("engine.languagehint", "")

	v.SetDefault("segment.chunkingenabled", true)
	v.SetDefault("segment.chunkduration", 30)
	v.SetDefault("segment.chunkoverlap", 1)
	v.SetDefault("segment.fastpaththreshold", 30)

	v.SetDefault("timeouts.connecttimeout", 30)
	v.SetDefault("timeouts.chunktimeout", 60)
	v.SetDefault("timeouts.realtimefactor", 1.5)
	v.SetDefault("timeouts.minrequesttimeout", 90)

	v.SetDefault("upload.maxsizemb", 500)
	v.SetDefault("upload.tempdir", "")
}
