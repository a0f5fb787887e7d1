package device

import (
	"os"
	"runtime"

	"github.com/hupe1980/segreduce/policy"
)

// ArchEnv overrides the detected architecture generation when set to a
// generation the host supports (for example "simd128" or "200").
const ArchEnv = "SEGREDUCE_ARCH"

// Package-level state, initialized once at package init.
var (
	detectedArch policy.Arch = policy.ArchGeneric
	hasOverride  bool

	// CPU feature flags (set by platform-specific init)
	hasSSE41    bool // x86-64 SSE4.1
	hasAVX2     bool // x86-64 AVX2 + FMA
	hasAVX512F  bool // x86-64 AVX-512 Foundation
	hasAVX512BW bool // x86-64 AVX-512 Byte/Word
	hasASIMD    bool // ARM64 NEON
	hasSVE2     bool // ARM64 SVE2
)

// CPUFeatures lists the vector features relevant to policy selection.
type CPUFeatures struct {
	SSE41  bool
	AVX2   bool
	AVX512 bool
	ASIMD  bool
	SVE2   bool
}

// initCapabilities is called from platform-specific init functions
// after CPU features are detected.
func initCapabilities() {
	best := selectBestArch()
	if override := os.Getenv(ArchEnv); override != "" {
		if a, ok := policy.ParseArch(override); ok {
			hasOverride = true
			// The override may only lower the generation.
			if a <= best {
				detectedArch = a
				return
			}
		}
	}
	detectedArch = best
}

// selectBestArch maps CPU features to the newest generation they support.
func selectBestArch() policy.Arch {
	switch runtime.GOARCH {
	case "amd64":
		switch {
		case hasAVX512F && hasAVX512BW:
			return policy.ArchSIMD512
		case hasAVX2:
			return policy.ArchSIMD256
		case hasSSE41:
			return policy.ArchSIMD128
		}
	case "arm64":
		// Apple's SVE2 support is emulated; NEON is faster there.
		if hasSVE2 && runtime.GOOS != "darwin" {
			return policy.ArchSIMD256
		}
		if hasASIMD {
			return policy.ArchSIMD128
		}
	}
	return policy.ArchGeneric
}

// DetectedArch returns the host architecture generation.
func DetectedArch() policy.Arch {
	return detectedArch
}

// IsOverridden returns true if SEGREDUCE_ARCH was set.
func IsOverridden() bool {
	return hasOverride
}

// Features returns the detected CPU features.
func Features() CPUFeatures {
	return CPUFeatures{
		SSE41:  hasSSE41,
		AVX2:   hasAVX2,
		AVX512: hasAVX512F && hasAVX512BW,
		ASIMD:  hasASIMD,
		SVE2:   hasSVE2,
	}
}
