package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gallerysync/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-o string   object store backend ("s3" or "minio")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   public base URL for object links
//	-w int      upload concurrency
//	-k int      delete concurrency
//	-t int      per-operation timeout, seconds
//	-m int      thumbnail width, pixels
//	-z int      max upload size per file, MiB
//	-f string   log format ("json" or "text")
//	-v          debug logging
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-o", "-u", "-p", "-b", "-g", "-e", "-l",
		"-w", "-k", "-t", "-m", "-z", "-f", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.ObjectStore, "o", config.ObjectStore, "object store backend (s3|minio)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.PublicBaseURL, "l", config.PublicBaseURL, "public base URL for object links")

	fs.IntVar(&config.UploadConcurrency, "w", config.UploadConcurrency, "max concurrent uploads")
	fs.IntVar(&config.DeleteConcurrency, "k", config.DeleteConcurrency, "max concurrent deletes")
	operationTimeout := fs.Int("t", int(config.OperationTimeout.Seconds()), "store operation timeout (in seconds)")
	fs.IntVar(&config.ThumbnailWidth, "m", config.ThumbnailWidth, "thumbnail width (in pixels)")
	maxUploadSize := fs.Int64("z", config.MaxUploadSize>>20, "max upload size per file (in MiB)")

	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text)")
	fs.BoolVar(&config.Debug, "v", config.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.OperationTimeout = time.Duration(*operationTimeout) * time.Second
	config.MaxUploadSize = *maxUploadSize << 20
}
