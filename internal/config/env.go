package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	envVar          = "ENV"
	baseURLVar      = "BASE_URL"
	dataFolderVar   = "DATA_FOLDER"
	flowTableVar    = "FLOW_TABLE"
	signingKeyVar   = "SIGNING_KEY"
	signingCertVar  = "SIGNING_CERT"
	defaultBaseURL  = "http://localhost:8080/acs"
	defaultFlowsCSV = "piflows.csv"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ AcsConfig = EnvVars{}
var _ SigningConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ACS Emulator")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

// GetBaseURL is the externally visible prefix used to build the
// threeDSMethodURL and acsURL values handed to callers.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, defaultBaseURL)
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(dataFolderVar, "data")
}

func (EnvVars) GetFlowTablePath() string {
	return GetEnv(flowTableVar, defaultFlowsCSV)
}

func (EnvVars) GetSigningKeyPath() string {
	return GetEnv(signingKeyVar, "acs_signature_key.pem")
}

func (EnvVars) GetSigningCertPath() string {
	return GetEnv(signingCertVar, "acs_signature_cert.pem")
}

// GetEnv returns the value of the environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
