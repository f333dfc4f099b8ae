package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/porthorian/jamfpro"
)

type fileConfig struct {
	URL         string        `yaml:"url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Timeout     time.Duration `yaml:"timeout"`
	DownloadDir string        `yaml:"download_dir"`
	Cache       struct {
		Backend string `yaml:"backend"`
		Redis   struct {
			Address   string `yaml:"address"`
			Username  string `yaml:"username"`
			Password  string `yaml:"password"`
			Database  int    `yaml:"database"`
			Namespace string `yaml:"namespace"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var config fileConfig
	if strings.TrimSpace(path) == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("jamfctl config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return fileConfig{}, fmt.Errorf("jamfctl config: failed to parse %s: %w", path, err)
	}
	return config, nil
}

// clientConfig merges the config file with flags. Flags win.
func (o *globalOptions) clientConfig() (jamfpro.Config, error) {
	file, err := loadFileConfig(o.ConfigPath)
	if err != nil {
		return jamfpro.Config{}, err
	}

	override := func(value, flag string) string {
		if flag != "" {
			return flag
		}
		return value
	}

	config := jamfpro.Config{
		BaseURL:     override(file.URL, o.URL),
		Username:    override(file.Username, o.Username),
		Password:    override(file.Password, o.Password),
		DownloadDir: file.DownloadDir,
		Runtime: jamfpro.RuntimeConfig{
			HTTP: jamfpro.HTTPConfig{Timeout: file.Timeout},
			Cache: jamfpro.CacheConfig{
				Backend: jamfpro.CacheBackend(file.Cache.Backend),
				Redis: jamfpro.RedisCacheConfig{
					Address:   file.Cache.Redis.Address,
					Username:  file.Cache.Redis.Username,
					Password:  file.Cache.Redis.Password,
					Database:  file.Cache.Redis.Database,
					Namespace: file.Cache.Redis.Namespace,
				},
			},
		},
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return jamfpro.Config{}, fmt.Errorf("jamfctl config: --url or url in the config file is required")
	}
	return config, nil
}
