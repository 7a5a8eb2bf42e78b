package backend

import (
	"fmt"

	"receipts/internal/config"
	gsheet "receipts/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.MirrorBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.MirrorBackend)
	}

	return Config{
		Type:                backendType,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		Credentials: gsheet.CredentialSources{
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
			OAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
			OAuthClientFile:    appConfig.GoogleOAuthClientFile,
			OAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
			OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		},
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SheetsBackend && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SheetsBackend, MemoryBackend}
}
