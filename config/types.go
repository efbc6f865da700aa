package config

type Config struct {
	Debug    bool     `mapstructure:"debug"`
	Server   Server   `mapstructure:"server"`
	Auth     Auth     `mapstructure:"auth"`
	Database Database `mapstructure:"database"`
	Storage  Storage  `mapstructure:"storage"`
	Media    Media    `mapstructure:"media"`
	Export   Export   `mapstructure:"export"`
}

type Server struct {
	Address string       `mapstructure:"address" validate:"required,hostname|ip"`
	Port    int          `mapstructure:"port" validate:"required,min=1,max=65535"`
	Limits  ServerLimits `mapstructure:"limits"`
}

type ServerLimits struct {
	MaxPayloadSize  uint `mapstructure:"max_payload_size" validate:"required"`
	MaxMultipartMem uint `mapstructure:"max_multipart_mem" validate:"required"`
}

type Auth struct {
	// VerifyUrl is the external endpoint that validates access tokens and
	// returns the caller identity. Session issuance lives outside this
	// service entirely.
	VerifyUrl string `mapstructure:"verify_url" validate:"required,url"`
}

type Database struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type Storage struct {
	Endpoint    string `mapstructure:"endpoint" validate:"required"`
	AccessKeyId string `mapstructure:"access_key_id" validate:"required"`
	SecretKeyId string `mapstructure:"secret_key_id" validate:"required"`
	Region      string `mapstructure:"region"`
	Bucket      string `mapstructure:"bucket" validate:"required"`
	Secure      bool   `mapstructure:"secure"`
	// PresignTTLSeconds bounds the validity of generated read URLs.
	PresignTTLSeconds uint `mapstructure:"presign_ttl_seconds" validate:"required"`
}

type Media struct {
	ThumbMaxWidth  int   `mapstructure:"thumb_max_width" validate:"required,min=16"`
	ThumbMaxHeight int   `mapstructure:"thumb_max_height" validate:"required,min=16"`
	MaxImageBytes  int64 `mapstructure:"max_image_bytes" validate:"required"`
	MaxVideoBytes  int64 `mapstructure:"max_video_bytes" validate:"required"`
	MaxAudioBytes  int64 `mapstructure:"max_audio_bytes" validate:"required"`
	MaxBatchFiles  int   `mapstructure:"max_batch_files" validate:"required,min=1"`
}

type Export struct {
	// ScratchDir is where per-invocation scratch trees and archives are
	// assembled. Empty means the OS temp directory.
	ScratchDir string `mapstructure:"scratch_dir" validate:"omitempty,abspath"`
	Version    string `mapstructure:"version"`
}
