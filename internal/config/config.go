package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dooshek/sonicstream/internal/fileops"
	"github.com/dooshek/sonicstream/internal/logger"
	"github.com/dooshek/sonicstream/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "sonicstream.yaml"
	envFilename    = ".env"
)

// Environment variables that override the YAML file.
const (
	EnvAPIKey     = "CARTESIA_API_KEY"
	EnvVersion    = "CARTESIA_VERSION"
	EnvModelID    = "CARTESIA_MODEL_ID"
	EnvVoiceID    = "CARTESIA_VOICE_ID"
	EnvSampleRate = "CARTESIA_SAMPLE_RATE"
	EnvLanguage   = "CARTESIA_LANGUAGE"
)

// LoadConfig reads the config file at path, or sonicstream.yaml from the
// default config directory when path is empty, then applies environment
// overrides. A missing file is not an error: the environment alone may be
// enough to run.
func LoadConfig(path string) (*types.Config, error) {
	if err := godotenv.Load(envFilename); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load %s: %v", envFilename, err)
	}

	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, fileops.ErrConfigNotFound)
		}
	} else {
		var fileOps *fileops.DefaultFileOps
		fileOps, err = fileops.NewDefaultFileOps()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file operations: %w", err)
		}
		data, err = fileOps.LoadConfig(configFilename)
		if errors.Is(err, fileops.ErrConfigNotFound) {
			logger.Debugf("No config file in %s, using environment only", fileOps.GetConfigDir())
			data, err = nil, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(config, os.Getenv); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes YAML config data. Empty data yields an empty config.
func Parse(data []byte) (*types.Config, error) {
	var config types.Config
	if len(data) == 0 {
		return &config, nil
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// ApplyEnv overrides TTS settings with any non-empty environment values.
func ApplyEnv(config *types.Config, getenv func(string) string) error {
	if v := getenv(EnvAPIKey); v != "" {
		config.TTS.APIKey = v
	}
	if v := getenv(EnvVersion); v != "" {
		config.TTS.Version = v
	}
	if v := getenv(EnvModelID); v != "" {
		config.TTS.ModelID = v
	}
	if v := getenv(EnvVoiceID); v != "" {
		config.TTS.VoiceID = v
	}
	if v := getenv(EnvLanguage); v != "" {
		config.TTS.Language = v
	}
	if v := getenv(EnvSampleRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSampleRate, v, err)
		}
		config.TTS.SampleRate = rate
	}
	return nil
}

// SaveConfig merges config into the stored file in the default config
// directory and writes it back.
func SaveConfig(config *types.Config) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return Save(fileOps, config)
}

// Save merges config into the file stored by fileOps and writes it back.
func Save(fileOps fileops.FileOps, config *types.Config) error {
	existing, err := fileOps.LoadConfig(configFilename)
	switch {
	case err == nil:
		stored, perr := Parse(existing)
		if perr != nil {
			logger.Warnf("Failed to load existing config: %v", perr)
		} else {
			mergeConfigs(stored, config)
			config = stored
		}
	case !errors.Is(err, fileops.ErrConfigNotFound):
		logger.Warnf("Failed to load existing config: %v", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// mergeConfigs copies every field explicitly set in source onto target,
// preserving the rest of target.
func mergeConfigs(target, source *types.Config) {
	src, dst := source.TTS, &target.TTS
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Version != "" {
		dst.Version = src.Version
	}
	if src.ModelID != "" {
		dst.ModelID = src.ModelID
	}
	if src.VoiceID != "" {
		dst.VoiceID = src.VoiceID
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.MaxChunkChars != 0 {
		dst.MaxChunkChars = src.MaxChunkChars
	}
	if src.MinChunkSeconds != 0 {
		dst.MinChunkSeconds = src.MinChunkSeconds
	}
	if src.HandshakeTimeout != 0 {
		dst.HandshakeTimeout = src.HandshakeTimeout
	}
	if src.ReadTimeout != 0 {
		dst.ReadTimeout = src.ReadTimeout
	}
	if src.WriteTimeout != 0 {
		dst.WriteTimeout = src.WriteTimeout
	}
	if src.ChannelBuffer != 0 {
		dst.ChannelBuffer = src.ChannelBuffer
	}

	if source.Log.Level != "" {
		target.Log.Level = source.Log.Level
	}
	if source.Log.Filename != "" {
		target.Log.Filename = source.Log.Filename
	}
	if source.Metrics.Addr != "" {
		target.Metrics.Addr = source.Metrics.Addr
	}
}
