package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterValidation("abspath", ValidateAbsPath)

	if err := validate.Struct(c); err != nil {
		return err
	}

	return nil
}

func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.limits.max_payload_size", 128<<20)
	v.SetDefault("server.limits.max_multipart_mem", 32<<20)
	v.SetDefault("storage.presign_ttl_seconds", 24*60*60)
	v.SetDefault("media.thumb_max_width", 300)
	v.SetDefault("media.thumb_max_height", 300)
	v.SetDefault("media.max_image_bytes", 10<<20)
	v.SetDefault("media.max_video_bytes", 100<<20)
	v.SetDefault("media.max_audio_bytes", 50<<20)
	v.SetDefault("media.max_batch_files", 10)
	v.SetDefault("export.version", "1.0.0")
}
