package config

// AzureSpeech holds the credentials of the Azure Speech resource used for recognition.
// AZURE_KEY and AZURE_REGION take precedence over the yaml values.
type AzureSpeech struct {
	SubscriptionKey string `yaml:"subscription_key"`
	ServiceRegion   string `yaml:"service_region"`
	// EndpointId selects a Custom Speech model, optional
	EndpointId string `yaml:"endpoint_id"`
}

func (a AzureSpeech) HasCredentials() bool {
	return a.SubscriptionKey != "" && a.ServiceRegion != ""
}
