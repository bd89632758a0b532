package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "LOTEPRO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
