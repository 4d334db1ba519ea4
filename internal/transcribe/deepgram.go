package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	langpkg "scribe/internal/language"
	"scribe/internal/services"
)

// DeepgramConfig carries the remote backend settings.
type DeepgramConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Language is an ISO code; empty requests backend detection.
	Language string
	Diarize  bool
	// Timeout bounds one transcription call. Large files legitimately take
	// tens of minutes.
	Timeout time.Duration
}

// HTTPDoer is the client surface used by the Deepgram backend.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Deepgram transcribes waveforms through the hosted listen API.
type Deepgram struct {
	cfg    DeepgramConfig
	client HTTPDoer
}

// NewDeepgram constructs the remote backend. A nil client gets a default
// client with the configured timeout.
func NewDeepgram(cfg DeepgramConfig, client HTTPDoer) *Deepgram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepgram.com"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Minute
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Deepgram{cfg: cfg, client: client}
}

func (d *Deepgram) Name() string { return "deepgram" }

// Transcribe uploads the waveform and renders the structured response. With
// diarization enabled and paragraph structure present, each paragraph renders
// as "Speaker <id>: <text>"; otherwise the flat transcript is returned.
// Missing or malformed response fields degrade to empty text.
func (d *Deepgram) Transcribe(ctx context.Context, wavPath string) (string, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "deepgram", "open waveform", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.requestURL(), file)
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "deepgram", "build request", err)
	}
	req.Header.Set("Authorization", "Token "+d.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/wav")
	if info, statErr := file.Stat(); statErr == nil {
		req.ContentLength = info.Size()
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "deepgram", "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "deepgram",
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrTranscriptionFailed, "transcribe", "deepgram", "decode response", err)
	}
	return payload.render(d.cfg.Diarize), nil
}

func (d *Deepgram) requestURL() string {
	params := url.Values{}
	params.Set("model", d.cfg.Model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	params.Set("utterances", "true")
	params.Set("profanity_filter", "false")
	if lang := langpkg.Canonical(d.cfg.Language); lang != "" {
		params.Set("language", lang)
	}
	if d.cfg.Diarize {
		params.Set("diarize", "true")
		params.Set("paragraphs", "true")
	}
	return d.cfg.BaseURL + "/v1/listen?" + params.Encode()
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Paragraphs *struct {
					Paragraphs []paragraph `json:"paragraphs"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type paragraph struct {
	Speaker   *int   `json:"speaker"`
	Text      string `json:"text"`
	Sentences []struct {
		Text string `json:"text"`
	} `json:"sentences"`
}

func (p paragraph) text() string {
	if text := strings.TrimSpace(p.Text); text != "" {
		return text
	}
	parts := make([]string, 0, len(p.Sentences))
	for _, sentence := range p.Sentences {
		if text := strings.TrimSpace(sentence.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (r listenResponse) render(diarize bool) string {
	if len(r.Results.Channels) == 0 || len(r.Results.Channels[0].Alternatives) == 0 {
		return ""
	}
	alt := r.Results.Channels[0].Alternatives[0]

	if diarize && alt.Paragraphs != nil && len(alt.Paragraphs.Paragraphs) > 0 {
		lines := make([]string, 0, len(alt.Paragraphs.Paragraphs))
		for _, p := range alt.Paragraphs.Paragraphs {
			text := p.text()
			if text == "" {
				continue
			}
			if p.Speaker != nil {
				lines = append(lines, fmt.Sprintf("Speaker %d: %s", *p.Speaker, text))
			} else {
				lines = append(lines, text)
			}
		}
		return strings.Join(lines, "\n")
	}
	return strings.TrimSpace(alt.Transcript)
}
