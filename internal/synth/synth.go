// Package synth renders finished songs as audio through a serverless
// YuE endpoint. Synthesis is slow (7-12 minutes typical) and bounded by
// a hard timeout.
package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tunetools/tunetools-api/internal/logger"
)

// DefaultTimeout bounds a single synthesis request
const DefaultTimeout = 900 * time.Second

// Result is the decoded synthesis output
type Result struct {
	Audio          []byte
	Filename       string
	FileSizeMB     float64
	GenerationTime time.Duration
}

// Synthesizer turns genre tags and formatted lyrics into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, genreTags, lyrics string) (*Result, error)
}

// RunPodSynthesizer calls a RunPod serverless runsync endpoint
type RunPodSynthesizer struct {
	apiKey     string
	endpointID string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewRunPodSynthesizer(apiKey, endpointID string, timeout time.Duration) *RunPodSynthesizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RunPodSynthesizer{
		apiKey:     apiKey,
		endpointID: endpointID,
		baseURL:    "https://api.runpod.ai/v2",
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout + 30*time.Second},
	}
}

// SetBaseURL overrides the endpoint base, for tests
func (s *RunPodSynthesizer) SetBaseURL(url string) { s.baseURL = url }

type runsyncRequest struct {
	Input runsyncInput `json:"input"`
}

type runsyncInput struct {
	GenreTags string `json:"genre_tags"`
	Lyrics    string `json:"lyrics"`
}

type runsyncResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

type runsyncOutput struct {
	Audio      string  `json:"audio"`
	Filename   string  `json:"filename"`
	FileSizeMB float64 `json:"file_size_mb"`
	Error      string  `json:"error"`
	Stdout     string  `json:"stdout"`
}

// Synthesize posts the runsync request and decodes the base64 audio payload.
// The call blocks until the endpoint finishes or the timeout elapses.
func (s *RunPodSynthesizer) Synthesize(ctx context.Context, genreTags, lyrics string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Info("Starting audio synthesis", logger.Fields{
		"genre_tags":   genreTags,
		"lyrics_bytes": len(lyrics),
	})

	body, err := json.Marshal(runsyncRequest{Input: runsyncInput{
		GenreTags: genreTags,
		Lyrics:    lyrics,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/runsync", s.baseURL, s.endpointID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	started := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis endpoint returned status %d", resp.StatusCode)
	}

	var payload runsyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode synthesis response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("synthesis job failed: %s", payload.Error)
	}
	if len(payload.Output) == 0 {
		return nil, fmt.Errorf("synthesis response has no output (status %q)", payload.Status)
	}

	var output runsyncOutput
	if err := json.Unmarshal(payload.Output, &output); err != nil {
		return nil, fmt.Errorf("failed to decode synthesis output: %w", err)
	}
	if output.Error != "" {
		return nil, fmt.Errorf("synthesis handler error: %s", output.Error)
	}
	if output.Audio == "" {
		return nil, fmt.Errorf("synthesis output has no audio data")
	}

	audio, err := base64.StdEncoding.DecodeString(output.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}

	elapsed := time.Since(started)
	filename := output.Filename
	if filename == "" {
		filename = "song.wav"
	}
	sizeMB := output.FileSizeMB
	if sizeMB == 0 {
		sizeMB = float64(len(audio)) / 1024 / 1024
	}

	logger.Info("Audio synthesis complete", logger.Fields{
		"filename":     filename,
		"file_size_mb": sizeMB,
		"elapsed":      elapsed.Round(time.Second).String(),
	})

	return &Result{
		Audio:          audio,
		Filename:       filename,
		FileSizeMB:     sizeMB,
		GenerationTime: elapsed,
	}, nil
}
