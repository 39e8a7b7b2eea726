package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"culprit-hunt/internal/service/game"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`

	// 私下查看身份的时限，到期视为已查看
	ViewTimeout time.Duration `mapstructure:"view_timeout"`
	// 侦探指认的时限，到期按超时结算
	AccusationTimeout time.Duration `mapstructure:"accusation_timeout"`
	// 调用方等待状态机回复的时限
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	ScaffoldRounds int      `mapstructure:"scaffold_rounds"`
	AutoplayRounds int      `mapstructure:"autoplay_rounds"`
	PlayerNames    []string `mapstructure:"player_names"`
}

const ENV_PREFIX = "CULPRIT"

func InitConfig() *AppConfig {
	config, err := LoadConfig(".")
	if err != nil {
		panic(err)
	}

	return config
}

// LoadConfig 从 dir 下的 app_config.json 读取配置，文件不存在时使用默认值。
// 环境变量（CULPRIT_ 前缀，可以写在 .env 中）优先于配置文件。
func LoadConfig(dir string) (*AppConfig, error) {
	// .env 可选，且不会覆盖已经存在的环境变量
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	v := viper.New()

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("view_timeout", "3s")
	v.SetDefault("accusation_timeout", "25s")
	v.SetDefault("request_timeout", "5s")
	v.SetDefault("scaffold_rounds", 10)
	v.SetDefault("autoplay_rounds", 10)
	v.SetDefault("player_names", []string{})
}

func (c *AppConfig) Validate() error {
	if c.ViewTimeout <= 0 || c.AccusationTimeout <= 0 || c.RequestTimeout <= 0 {
		return errors.New("配置无效：计时必须大于 0")
	}

	if c.ScaffoldRounds < 1 {
		return errors.New("配置无效：scaffold_rounds 至少为 1")
	}

	if c.AutoplayRounds < 0 {
		return errors.New("配置无效：autoplay_rounds 不能为负数")
	}

	if len(c.PlayerNames) > game.PLAYER_COUNT {
		return fmt.Errorf("配置无效：最多 %d 名玩家，实际 %d 名", game.PLAYER_COUNT, len(c.PlayerNames))
	}

	return nil
}

// Names 把配置中的玩家名补齐为固定人数，缺少的留空交给赛季使用默认名
func (c *AppConfig) Names() [game.PLAYER_COUNT]string {
	var names [game.PLAYER_COUNT]string
	copy(names[:], c.PlayerNames)

	return names
}
