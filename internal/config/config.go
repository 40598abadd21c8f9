package config

import (
	"os"
	"path/filepath"

	"github.com/speakeasy-api/gitsync/internal/env"
	"github.com/spf13/viper"
)

var (
	vCfg   = viper.New()
	cfgDir string
)

const (
	authorNameKey  = "author_name"
	authorEmailKey = "author_email"
	remoteKey      = "remote"
	tokenKey       = "token"

	DefaultRemote      = "origin"
	DefaultAuthorName  = "gitsync"
	DefaultAuthorEmail = "gitsync@localhost"
)

// Load reads ~/.gitsync/config.yaml. A missing file is not an error.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	return LoadFrom(filepath.Join(home, ".gitsync"))
}

// LoadFrom reads config.yaml from dir, resetting any previously loaded values.
func LoadFrom(dir string) error {
	cfgDir = dir

	vCfg = viper.New()
	vCfg.SetConfigName("config")
	vCfg.SetConfigType("yaml")
	vCfg.AddConfigPath(cfgDir)
	vCfg.SetEnvPrefix("gitsync")
	vCfg.AutomaticEnv()

	vCfg.SetDefault(remoteKey, DefaultRemote)
	vCfg.SetDefault(authorNameKey, DefaultAuthorName)
	vCfg.SetDefault(authorEmailKey, DefaultAuthorEmail)

	if err := vCfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

func GetAuthorName() string {
	return vCfg.GetString(authorNameKey)
}

func GetAuthorEmail() string {
	return vCfg.GetString(authorEmailKey)
}

func GetRemote() string {
	return vCfg.GetString(remoteKey)
}

func GetToken() string {
	token := env.Token()
	if token == "" {
		return vCfg.GetString(tokenKey)
	}

	return token
}

func SetIdentity(name, email string) error {
	vCfg.Set(authorNameKey, name)
	vCfg.Set(authorEmailKey, email)
	return save()
}

func SetRemote(remote string) error {
	vCfg.Set(remoteKey, remote)
	return save()
}

func SetToken(token string) error {
	vCfg.Set(tokenKey, token)
	return save()
}

func save() error {
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return err
	}

	if err := vCfg.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}

		if err := vCfg.SafeWriteConfig(); err != nil {
			return err
		}
	}

	return nil
}
