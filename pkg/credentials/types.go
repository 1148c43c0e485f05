package credentials

// Credentials represents the stored service credentials in credentials.toml.
type Credentials struct {
	Version  int                          `toml:"version"`
	Services map[string]ServiceCredential `toml:"services"`
}

// ServiceCredential holds the application id and key for a single service.
type ServiceCredential struct {
	AppID  string `toml:"app_id"`
	AppKey string `toml:"app_key"`
}
