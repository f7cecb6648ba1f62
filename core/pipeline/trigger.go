package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lissants/berkaraoke/logger"
)

// AnalysisService triggers vocal-performance analysis for uploaded artifacts.
type AnalysisService interface {
	// SubmitOne requests analysis of a single song's artifact.
	SubmitOne(ctx context.Context, artifactID, recordID, userID, genreFilter, artistFilter string) (ProcessResult, error)
	// SubmitBatch requests the joined analysis covering all required songs.
	SubmitBatch(ctx context.Context, artifactIDs, recordIDs []string, masterRecordID, userID, genreFilter, artistFilter string) (ProcessResult, error)
}

// ProcessResult is the analysis service's response payload. The pipeline
// passes it through without validating its shape beyond existence.
type ProcessResult map[string]interface{}

// processRequest is the JSON body POSTed to the analysis service.
type processRequest struct {
	FileIDs          []string `json:"fileIds"`
	DocumentID       string   `json:"documentId,omitempty"`
	DocumentIDs      []string `json:"documentIds,omitempty"`
	MasterDocumentID string   `json:"masterDocumentId,omitempty"`
	UserID           string   `json:"userId"`
	GenreFilter      string   `json:"genreFilter"`
	ArtistFilter     string   `json:"artistFilter"`
}

// AnalysisClient talks to the external analysis service over HTTP. No
// timeout is enforced here; a hung call stalls that song's submission until
// the caller's context is cancelled.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnalysisClient creates a client for the service at baseURL.
func NewAnalysisClient(baseURL string) *AnalysisClient {
	return &AnalysisClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Ping checks reachability via the service's health endpoint. Any 2xx counts.
func (c *AnalysisClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe returned %d", resp.StatusCode)
	}
	return nil
}

// SubmitOne requests analysis of a single song submission.
func (c *AnalysisClient) SubmitOne(ctx context.Context, artifactID, recordID, userID, genreFilter, artistFilter string) (ProcessResult, error) {
	return c.submit(ctx, processRequest{
		FileIDs:      []string{artifactID},
		DocumentID:   recordID,
		UserID:       userID,
		GenreFilter:  genreFilter,
		ArtistFilter: artistFilter,
	})
}

// SubmitBatch requests the joined analysis across all required songs.
func (c *AnalysisClient) SubmitBatch(ctx context.Context, artifactIDs, recordIDs []string, masterRecordID, userID, genreFilter, artistFilter string) (ProcessResult, error) {
	return c.submit(ctx, processRequest{
		FileIDs:          artifactIDs,
		DocumentIDs:      recordIDs,
		MasterDocumentID: masterRecordID,
		UserID:           userID,
		GenreFilter:      genreFilter,
		ArtistFilter:     artistFilter,
	})
}

func (c *AnalysisClient) submit(ctx context.Context, reqBody processRequest) (ProcessResult, error) {
	// Fast-fail on an unreachable service rather than posting a doomed
	// submission.
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build process request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}
	defer resp.Body.Close()

	var result ProcessResult
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Sprintf("service returned %d", resp.StatusCode)
		if msg, ok := result["error"].(string); ok && msg != "" {
			detail = msg
		}
		return nil, &ProcessingRejectedError{Detail: detail}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode process response: %w", decodeErr)
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, &ProcessingRejectedError{Detail: msg}
	}

	logger.Debug("Analysis request accepted", logger.Any("result", result))
	return result, nil
}
