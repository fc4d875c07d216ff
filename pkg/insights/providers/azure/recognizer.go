package azure

import (
	"errors"
	"fmt"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
)

// eventBufferSize is the number of events a session buffers before the SDK
// callback blocks waiting for the aggregation goroutine.
const eventBufferSize = 128

// Recognizer opens Azure continuous recognition sessions over WAV files.
type Recognizer struct {
	creds  config.AzureSpeech
	logger *logrus.Entry
}

func NewRecognizer(app *config.AppConfig, logger *logrus.Logger) *Recognizer {
	r := &Recognizer{
		creds:  app.AzureSpeech,
		logger: logger.WithField("provider", "azure"),
	}
	if !r.creds.HasCredentials() {
		r.logger.Warnln(config.AzureCredentialsNotSet)
	}
	return r
}

func (r *Recognizer) Validate() error {
	if !r.creds.HasCredentials() {
		return insights.NewError(insights.KindConfiguration, "azure speech", errors.New(config.AzureCredentialsNotSet))
	}
	return nil
}

// NewSession builds a dedicated speech config, audio config and recognizer.
// Nothing is shared between sessions, so jobs with different languages can
// run side by side.
func (r *Recognizer) NewSession(language, wavPath string) (insights.RecognitionSession, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	log := r.logger.WithFields(logrus.Fields{
		"language": language,
		"wavPath":  wavPath,
	})

	speechConfig, err := speech.NewSpeechConfigFromSubscription(r.creds.SubscriptionKey, r.creds.ServiceRegion)
	if err != nil {
		return nil, fmt.Errorf("could not create speech config: %w", err)
	}
	if err = speechConfig.SetSpeechRecognitionLanguage(language); err != nil {
		speechConfig.Close()
		return nil, fmt.Errorf("could not set recognition language: %w", err)
	}
	if r.creds.EndpointId != "" {
		if err = speechConfig.SetEndpointID(r.creds.EndpointId); err != nil {
			speechConfig.Close()
			return nil, fmt.Errorf("could not set endpoint id: %w", err)
		}
	}

	audioConfig, err := audio.NewAudioConfigFromWavFileInput(wavPath)
	if err != nil {
		speechConfig.Close()
		return nil, fmt.Errorf("could not create audio config: %w", err)
	}

	recognizer, err := speech.NewSpeechRecognizerFromConfig(speechConfig, audioConfig)
	if err != nil {
		audioConfig.Close()
		speechConfig.Close()
		return nil, fmt.Errorf("could not create speech recognizer: %w", err)
	}

	s := &session{
		speechConfig: speechConfig,
		audioConfig:  audioConfig,
		recognizer:   recognizer,
		events:       make(chan *insights.RecognitionEvent, eventBufferSize),
		done:         make(chan struct{}),
		log:          log,
	}
	s.registerHandlers()

	return s, nil
}
