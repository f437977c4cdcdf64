package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gallerysync/internal/flagx"
	"github.com/dmitrijs2005/gallerysync/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	ObjectStore       string         `json:"object_store"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	PublicBaseURL     string         `json:"public_base_url"`
	UploadConcurrency int            `json:"upload_concurrency"`
	DeleteConcurrency int            `json:"delete_concurrency"`
	OperationTimeout  timex.Duration `json:"operation_timeout"`
	ThumbnailWidth    int            `json:"thumbnail_width"`
	MaxUploadSize     int64          `json:"max_upload_size"`
	LogFormat         string         `json:"log_format"`
	Debug             *bool          `json:"debug"`
}

// parseJson loads the file named by -c/-config (if any) into config.
// Only keys present with a non-zero value override the current settings.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.ObjectStore, c.ObjectStore)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.LogFormat, c.LogFormat)

	if c.UploadConcurrency > 0 {
		config.UploadConcurrency = c.UploadConcurrency
	}
	if c.DeleteConcurrency > 0 {
		config.DeleteConcurrency = c.DeleteConcurrency
	}
	if c.OperationTimeout.Duration > 0 {
		config.OperationTimeout = c.OperationTimeout.Duration
	}
	if c.ThumbnailWidth > 0 {
		config.ThumbnailWidth = c.ThumbnailWidth
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
