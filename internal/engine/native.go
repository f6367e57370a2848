package engine

import (
	"fmt"
	"os"

	"github.com/ebitengine/purego"
)

// nativeProfile names the build variant of the shared libraries this
// binding loads, used to build the artifact subdirectory name. GPU
// scheduling is a Non-goal (spec's Non-goals), so only the CPU profile
// is ever requested.
const nativeProfile = "cpu"

// modelDir returns the artifact subdirectory spec §6 defines for a
// given model size: <artifactsDir>/whisper_<size>_<profile>/.
func modelDir(artifactsDir, modelSize string) string {
	return fmt.Sprintf("%s/whisper_%s_%s", artifactsDir, modelSize, nativeProfile)
}

// modelFilePath returns the path of the quantized model file spec §6
// requires inside a model's artifact subdirectory.
func modelFilePath(artifactsDir, modelSize string) string {
	return fmt.Sprintf("%s/ggml-%s-q5_1.bin", modelDir(artifactsDir, modelSize), modelSize)
}

// libraryOrder lists the shared libraries that must be dlopen'd, in
// dependency order, before the main engine library is usable (spec
// §4.1). Each is opened with RTLD_GLOBAL so later libraries in the
// chain resolve symbols from earlier ones, matching how whisper.cpp's
// own CMake build links them when built as separate shared objects
// instead of one static archive.
var libraryOrder = []string{
	"libggml-base.so",
	"libggml-cpu.so",
	"libggml.so",
	"libwhisper.so",
}

// nativeAPI holds the function pointers resolved from the loaded shared
// libraries. It mirrors the subset of whisper.cpp's C API the engine
// binding needs, in the same shape the cgo bindings
// (ggerganov/whisper.cpp/bindings/go) expose at the Go level.
type nativeAPI struct {
	handles []uintptr

	whisperInitFromFile     func(path string) uintptr
	whisperFree             func(ctx uintptr)
	whisperFullDefaultParams func(strategy int32) whisperFullParams
	whisperFull             func(ctx uintptr, params whisperFullParams, samples *float32, nSamples int32) int32
	whisperFullNSegments    func(ctx uintptr) int32
	whisperFullGetSegmentText func(ctx uintptr, segment int32) string
	whisperFullGetSegmentT0 func(ctx uintptr, segment int32) int64
	whisperFullGetSegmentT1 func(ctx uintptr, segment int32) int64
}

// whisperFullParams mirrors the fields of whisper.cpp's
// whisper_full_params struct that this binding sets explicitly. It is
// intentionally a small subset: the real struct has dozens of fields,
// most left at the library's own defaults via
// whisper_full_default_params.
type whisperFullParams struct {
	Strategy        int32
	NThreads        int32
	Language        *byte
	Translate       bool
	NoContext       bool
	NoTimestamps    bool
	SingleSegment   bool
	PrintProgress   bool
	PrintRealtime   bool
	PrintTimestamps bool
}

const (
	samplingGreedy int32 = 0
)

// loadNativeAPI dlopens the libraries in libraryOrder and resolves the
// symbols nativeAPI needs. It closes any libraries it already opened if
// a later step in the chain fails, since a partially loaded chain must
// not be left registered with the dynamic linker.
func loadNativeAPI(artifactsDir, modelSize string) (*nativeAPI, error) {
	dir := modelDir(artifactsDir, modelSize)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("artifact directory %s: %w", dir, err)
	}

	api := &nativeAPI{}

	for _, lib := range libraryOrder {
		path := dir + "/" + lib
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			for i := len(api.handles) - 1; i >= 0; i-- {
				_ = purego.Dlclose(api.handles[i])
			}
			return nil, fmt.Errorf("dlopen %s: %w", lib, err)
		}
		api.handles = append(api.handles, handle)
	}

	mainHandle := api.handles[len(api.handles)-1]

	purego.RegisterLibFunc(&api.whisperInitFromFile, mainHandle, "whisper_init_from_file")
	purego.RegisterLibFunc(&api.whisperFree, mainHandle, "whisper_free")
	purego.RegisterLibFunc(&api.whisperFullDefaultParams, mainHandle, "whisper_full_default_params")
	purego.RegisterLibFunc(&api.whisperFull, mainHandle, "whisper_full")
	purego.RegisterLibFunc(&api.whisperFullNSegments, mainHandle, "whisper_full_n_segments")
	purego.RegisterLibFunc(&api.whisperFullGetSegmentText, mainHandle, "whisper_full_get_segment_text")
	purego.RegisterLibFunc(&api.whisperFullGetSegmentT0, mainHandle, "whisper_full_get_segment_t0")
	purego.RegisterLibFunc(&api.whisperFullGetSegmentT1, mainHandle, "whisper_full_get_segment_t1")

	return api, nil
}
