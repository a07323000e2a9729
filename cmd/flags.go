package cmd

import (
	"time"

	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "SNAPSHOTSTORE_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/snapshotstore", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "SNAPSHOTSTORE_BASE_PATH")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

// ------------------------------------------------------------------------------------------------
// ~ Storage
// ------------------------------------------------------------------------------------------------

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "redis", "Storage backend: "+storageTypesHelp)
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "SNAPSHOTSTORE_STORAGE_TYPE")
}

func storageCodecFlag(v *viper.Viper) string {
	return v.GetString("storage.codec")
}

func addStorageCodecFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-codec", "", "Payload codec, e.g. msgpack+zlib or json+zlib (default depends on storage type)")
	_ = v.BindPFlag("storage.codec", flags.Lookup("storage-codec"))
	_ = v.BindEnv("storage.codec", "SNAPSHOTSTORE_STORAGE_CODEC")
}

func storageNamespaceFlag(v *viper.Viper) string {
	return v.GetString("storage.namespace")
}

func addStorageNamespaceFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-namespace", "", "Key prefix of the versioned key-value layout")
	_ = v.BindPFlag("storage.namespace", flags.Lookup("storage-namespace"))
	_ = v.BindEnv("storage.namespace", "SNAPSHOTSTORE_STORAGE_NAMESPACE")
}

func storageRedisURLFlag(v *viper.Viper) string {
	return v.GetString("storage.redis.url")
}

func addStorageRedisURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-redis-url", "redis://localhost:6379/0", "Redis connection url")
	_ = v.BindPFlag("storage.redis.url", flags.Lookup("storage-redis-url"))
	_ = v.BindEnv("storage.redis.url", "SNAPSHOTSTORE_STORAGE_REDIS_URL")
}

func storageBadgerDirFlag(v *viper.Viper) string {
	return v.GetString("storage.badger.dir")
}

func addStorageBadgerDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-badger-dir", "/var/lib/snapshotstore/badger", "Badger database directory")
	_ = v.BindPFlag("storage.badger.dir", flags.Lookup("storage-badger-dir"))
	_ = v.BindEnv("storage.badger.dir", "SNAPSHOTSTORE_STORAGE_BADGER_DIR")
}

func storageSQLiteDSNFlag(v *viper.Viper) string {
	return v.GetString("storage.sqlite.dsn")
}

func addStorageSQLiteDSNFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-sqlite-dsn", "/var/lib/snapshotstore/snapshots.db", "SQLite database file")
	_ = v.BindPFlag("storage.sqlite.dsn", flags.Lookup("storage-sqlite-dsn"))
	_ = v.BindEnv("storage.sqlite.dsn", "SNAPSHOTSTORE_STORAGE_SQLITE_DSN")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Blob bucket url (gs://, s3://, azblob://, file://, mem://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "SNAPSHOTSTORE_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Path prefix inside the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "SNAPSHOTSTORE_STORAGE_BLOB_PREFIX")
}

func storageFilesystemDirFlag(v *viper.Viper) string {
	return v.GetString("storage.filesystem.dir")
}

func addStorageFilesystemDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-filesystem-dir", "/var/lib/snapshotstore/objects", "Object directory of the filesystem storage")
	_ = v.BindPFlag("storage.filesystem.dir", flags.Lookup("storage-filesystem-dir"))
	_ = v.BindEnv("storage.filesystem.dir", "SNAPSHOTSTORE_STORAGE_FILESYSTEM_DIR")
}

func storageRemoteURLFlag(v *viper.Viper) string {
	return v.GetString("storage.remote.url")
}

func addStorageRemoteURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-remote-url", "", "Url of a running snapshotstore server incl. base path (read only)")
	_ = v.BindPFlag("storage.remote.url", flags.Lookup("storage-remote-url"))
	_ = v.BindEnv("storage.remote.url", "SNAPSHOTSTORE_STORAGE_REMOTE_URL")
}

func lockTTLFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("lock.ttl")
}

func addLockTTLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("lock-ttl", store.DefaultLockTTL, "Window in which only one snapshot read is admitted")
	_ = v.BindPFlag("lock.ttl", flags.Lookup("lock-ttl"))
	_ = v.BindEnv("lock.ttl", "SNAPSHOTSTORE_LOCK_TTL")
}

func lockKeyFlag(v *viper.Viper) string {
	return v.GetString("lock.key")
}

func addLockKeyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("lock-key", store.DefaultLockKey, "Key of the throttling lock")
	_ = v.BindPFlag("lock.key", flags.Lookup("lock-key"))
	_ = v.BindEnv("lock.key", "SNAPSHOTSTORE_LOCK_KEY")
}

func lockIgnoreOnceFlag(v *viper.Viper) bool {
	return v.GetBool("lock.ignore_once")
}

func addLockIgnoreOnceFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("lock-ignore-once", true, "Admit the first read regardless of the lock")
	_ = v.BindPFlag("lock.ignore_once", flags.Lookup("lock-ignore-once"))
	_ = v.BindEnv("lock.ignore_once", "SNAPSHOTSTORE_LOCK_IGNORE_ONCE")
}

func lockIgnoreAlwaysFlag(v *viper.Viper) bool {
	return v.GetBool("lock.ignore_always")
}

func addLockIgnoreAlwaysFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("lock-ignore-always", false, "Disable the throttling lock")
	_ = v.BindPFlag("lock.ignore_always", flags.Lookup("lock-ignore-always"))
	_ = v.BindEnv("lock.ignore_always", "SNAPSHOTSTORE_LOCK_IGNORE_ALWAYS")
}

// addStorageFlags registers every flag read by newStorage
func addStorageFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addStorageTypeFlag(flags, v)
	addStorageCodecFlag(flags, v)
	addStorageNamespaceFlag(flags, v)
	addStorageRedisURLFlag(flags, v)
	addStorageBadgerDirFlag(flags, v)
	addStorageSQLiteDSNFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
	addStorageFilesystemDirFlag(flags, v)
	addStorageRemoteURLFlag(flags, v)
	addLockTTLFlag(flags, v)
	addLockKeyFlag(flags, v)
	addLockIgnoreOnceFlag(flags, v)
	addLockIgnoreAlwaysFlag(flags, v)
}

// ------------------------------------------------------------------------------------------------
// ~ Commands
// ------------------------------------------------------------------------------------------------

func formatFlag(v *viper.Viper) string {
	return v.GetString("format")
}

func addFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("format", "json", "Payload format on stdin/stdout: json or raw")
	_ = v.BindPFlag("format", flags.Lookup("format"))
}

func skipLatestFlag(v *viper.Viper) bool {
	return v.GetBool("skip_latest")
}

func addSkipLatestFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("skip-latest", false, "Do not advance the latest version pointer")
	_ = v.BindPFlag("skip_latest", flags.Lookup("skip-latest"))
}

func patchFlag(v *viper.Viper) bool {
	return v.GetBool("patch")
}

func addPatchFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("patch", false, "Store a patch from the previous latest version")
	_ = v.BindPFlag("patch", flags.Lookup("patch"))
}

func keepFlag(v *viper.Viper) int {
	return v.GetInt("keep")
}

func addKeepFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("keep", 2, "Number of versions to keep, including the latest")
	_ = v.BindPFlag("keep", flags.Lookup("keep"))
	_ = v.BindEnv("keep", "SNAPSHOTSTORE_KEEP")
}
