package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type StorageConfig struct {
	// Kind selects the tree backend, "fs" or "memory".
	Kind      string `json:"kind"`
	Root      string `json:"root"`
	CacheSize int64  `json:"cache_size"`
}

type PatchConfig struct {
	Enable bool `json:"enable"`
}

type Config struct {
	Bind     string            `json:"bind"`
	LogInfo  logger.LogConfig  `json:"log_info"`
	Prefix   string            `json:"prefix"`
	DBFile   string            `json:"db_file"`
	UserInfo map[string]string `json:"user_info"`
	Storage  StorageConfig     `json:"storage"`
	Patch    PatchConfig       `json:"patch"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		Bind: ":8080",
		Storage: StorageConfig{
			Kind: "memory",
		},
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode json failed, err:%w", err)
	}
	return c, nil
}
