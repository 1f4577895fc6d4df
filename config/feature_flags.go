package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with optional gradual rollout.
// Rollout assignment is a stable hash of the user id, so a user keeps
// the same answer across sessions.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent gates enabled features to a percentage of users
	// (0-100). 100 means everyone.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// FeaturePremiumTips gates the metered upstream tip generator.
	FeaturePremiumTips = "premium_tips"

	// FeatureExcelExport gates the XLSX export endpoint.
	FeatureExcelExport = "excel_export"

	// FeatureMentorSharing gates mentor share codes.
	FeatureMentorSharing = "mentor_sharing"
)

// LoadFeatureFlags builds the flag set from environment variables. Each
// flag reads FEATURE_<NAME> (bool) and FEATURE_<NAME>_ROLLOUT (0-100).
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: map[string]*Feature{}}

	register := func(name, description string, defaultEnabled bool) {
		envKey := "FEATURE_" + strings.ToUpper(name)
		ff.features[name] = &Feature{
			Name:           name,
			Description:    description,
			Enabled:        envBoolOr(envKey, defaultEnabled),
			RolloutPercent: envIntOr(envKey+"_ROLLOUT", 100),
		}
	}

	register(FeaturePremiumTips, "metered upstream tip generation", true)
	register(FeatureExcelExport, "snapshot export as XLSX", true)
	register(FeatureMentorSharing, "read-only mentor share codes", true)

	return ff
}

// IsEnabled reports whether a feature is on for the given user.
func (ff *FeatureFlags) IsEnabled(name, uid string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	if !ok || !f.Enabled {
		return false
	}
	if f.RolloutPercent >= 100 {
		return true
	}
	if f.RolloutPercent <= 0 {
		return false
	}
	return userBucket(uid) < f.RolloutPercent
}

// SetEnabled overrides a flag at runtime.
func (ff *FeatureFlags) SetEnabled(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if f, ok := ff.features[name]; ok {
		f.Enabled = enabled
	}
}

// userBucket maps a uid to a stable 0-99 bucket.
func userBucket(uid string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uid))
	return int(h.Sum32() % 100)
}

func envBoolOr(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func envIntOr(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
