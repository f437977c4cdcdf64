package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gallerysync/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "GALLERYSYNC_"

// parseEnv overlays Config with GALLERYSYNC_* environment variables.
//
// When -env-file is given the file is loaded first with godotenv (existing
// variables are not overridden); a missing or malformed file panics, like
// the JSON overlay does. Unset or empty variables leave fields untouched.
// Numeric variables that fail to parse panic.
//
//	GALLERYSYNC_HTTP_ADDR            GALLERYSYNC_S3_BUCKET
//	GALLERYSYNC_DATABASE_DSN         GALLERYSYNC_S3_REGION
//	GALLERYSYNC_SECRET_KEY           GALLERYSYNC_S3_BASE_ENDPOINT
//	GALLERYSYNC_OBJECT_STORE         GALLERYSYNC_PUBLIC_BASE_URL
//	GALLERYSYNC_S3_ROOT_USER         GALLERYSYNC_UPLOAD_CONCURRENCY
//	GALLERYSYNC_S3_ROOT_PASSWORD     GALLERYSYNC_DELETE_CONCURRENCY
//	GALLERYSYNC_OPERATION_TIMEOUT    GALLERYSYNC_THUMBNAIL_WIDTH
//	GALLERYSYNC_MAX_UPLOAD_SIZE      GALLERYSYNC_LOG_FORMAT
//	GALLERYSYNC_DEBUG
func parseEnv(config *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envString(&config.ObjectStore, "OBJECT_STORE")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.PublicBaseURL, "PUBLIC_BASE_URL")
	envString(&config.LogFormat, "LOG_FORMAT")

	if v, ok := lookup("UPLOAD_CONCURRENCY"); ok {
		config.UploadConcurrency = mustAtoi(v)
	}
	if v, ok := lookup("DELETE_CONCURRENCY"); ok {
		config.DeleteConcurrency = mustAtoi(v)
	}
	if v, ok := lookup("THUMBNAIL_WIDTH"); ok {
		config.ThumbnailWidth = mustAtoi(v)
	}
	if v, ok := lookup("MAX_UPLOAD_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadSize = n
	}
	if v, ok := lookup("OPERATION_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.OperationTimeout = d
	}
	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.Debug = b
	}
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func mustAtoi(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	return n
}
