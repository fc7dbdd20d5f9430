package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"
	"recruitflow-go/internal/logger"
	"recruitflow-go/internal/tracing"

	"go.opentelemetry.io/otel/trace"
)

// Client talks to the external workflow engine over its per-operation
// webhook URLs. Calls are never retried here; the ingestion endpoint is
// idempotent and retries are caller-initiated.
type Client struct {
	httpClient      *http.Client
	cfg             *config.EngineConfig
	requestTimeout  time.Duration
	evaluateTimeout time.Duration
}

// NewClient builds an engine client from configuration.
func NewClient(cfg *config.EngineConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine config cannot be nil")
	}
	return &Client{
		// Per-request deadlines come from the context; the client itself
		// has no timeout so the long evaluation calls are not cut short.
		httpClient:      &http.Client{},
		cfg:             cfg,
		requestTimeout:  time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		evaluateTimeout: time.Duration(cfg.EvaluateTimeoutMinutes) * time.Minute,
	}, nil
}

// classify maps a transport failure to the gateway error taxonomy and
// records it on the active span.
func classify(ctx context.Context, operation string, err error) error {
	span := trace.SpanFromContext(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		tracing.RecordError(span, err, tracing.ErrorTypeTimeout)
		return apperr.Wrap(apperr.KindGatewayTimeout, err, "Tiempo de espera agotado al contactar con el motor de flujos (%s)", operation)
	}
	tracing.RecordError(span, err, tracing.ErrorTypeExternal)
	return apperr.Wrap(apperr.KindGateway, err, "Error al conectar con el motor de flujos (%s)", operation)
}

// postJSON posts a JSON body and returns the raw response bytes. Non-2xx
// statuses become gateway errors carrying the upstream body.
func (c *Client) postJSON(ctx context.Context, operation, url string, timeout time.Duration, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("operation", operation).Msg("engine call failed")
		return nil, classify(ctx, operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, operation, err)
	}

	logger.Debug().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("engine call finished")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.KindGateway, "El motor de flujos respondió %d en %s: %s", resp.StatusCode, operation, truncate(data, 512))
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// CreateFolder provisions the remote drive folder for a new process.
func (c *Client) CreateFolder(ctx context.Context, folderName string) (*FolderInfo, error) {
	data, err := c.postJSON(ctx, "create-folder", c.cfg.CreateFolderURL, c.requestTimeout, map[string]string{
		"folder_name": folderName,
	})
	if err != nil {
		return nil, err
	}

	var info FolderInfo
	if err := decodeTolerant(data, &info); err != nil {
		return nil, apperr.Wrap(apperr.KindGateway, err, "Respuesta inválida del motor de flujos al crear carpeta")
	}
	if info.FolderID == "" || info.FolderURL == "" {
		return nil, apperr.New(apperr.KindGateway, "Respuesta del motor de flujos sin folder_id o folder_url")
	}
	return &info, nil
}

// ListFolderFiles returns the files currently in a process folder. The
// workflow has returned several shapes over time; all are accepted.
func (c *Client) ListFolderFiles(ctx context.Context, folderID string, processID uint) ([]DriveFile, error) {
	data, err := c.postJSON(ctx, "list-files", c.cfg.ListFilesURL, c.requestTimeout, map[string]interface{}{
		"folder_id":  folderID,
		"process_id": processID,
	})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Files []DriveFile `json:"files"`
	}
	if err := decodeTolerant(data, &wrapped); err == nil && wrapped.Files != nil {
		return wrapped.Files, nil
	}

	var legacy struct {
		PDFFiles []DriveFile `json:"pdf_files"`
	}
	if err := decodeTolerant(data, &legacy); err == nil && legacy.PDFFiles != nil {
		return legacy.PDFFiles, nil
	}

	var bare []DriveFile
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, apperr.New(apperr.KindGateway, "Respuesta inesperada del motor de flujos al listar archivos")
}

// EvaluateCV asks the engine to evaluate one file. This is the slow call;
// it gets the long per-file timeout.
func (c *Client) EvaluateCV(ctx context.Context, req *EvaluateRequest) (*EvaluationResult, error) {
	data, err := c.postJSON(ctx, "evaluate-cv", c.cfg.EvaluateCVURL, c.evaluateTimeout, req)
	if err != nil {
		return nil, err
	}

	var result EvaluationResult
	if err := decodeTolerant(data, &result); err != nil {
		return nil, apperr.Wrap(apperr.KindGateway, err, "Respuesta inválida del motor de flujos al evaluar CV")
	}
	if result.FileName == "" {
		result.FileName = req.FileName
	}
	if result.FileID == "" {
		result.FileID = req.FileID
	}
	if result.FileURL == "" {
		result.FileURL = req.FileURL
	}
	return &result, nil
}

// UploadCV forwards an intake-form CV to the engine, which stores it in the
// process folder and returns the stored file reference.
func (c *Client) UploadCV(ctx context.Context, folderID, processCode, postulantDNI string, postulationID uint, filename, contentType string, contents []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"drive_folder_id": folderID,
		"process_code":    processCode,
		"postulant_dni":   postulantDNI,
		"postulation_id":  fmt.Sprintf("%d", postulationID),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing multipart field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating multipart file part: %w", err)
	}
	if _, err := part.Write(contents); err != nil {
		return nil, fmt.Errorf("writing multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadCVURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, "upload-cv", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, "upload-cv", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.New(apperr.KindGateway, "El motor de flujos respondió %d al subir CV: %s", resp.StatusCode, truncate(data, 512))
	}

	var result UploadResult
	if err := decodeTolerant(data, &result); err != nil {
		// Some workflow revisions acknowledge with an empty body.
		return &UploadResult{}, nil
	}
	return &result, nil
}

// PropagateResults posts the shortlisted candidates of a finalized process.
// Only a 2xx acknowledgement counts as success.
func (c *Client) PropagateResults(ctx context.Context, payload *PropagatePayload) error {
	_, err := c.postJSON(ctx, "propagate-results", c.cfg.PropagateResultsURL, c.requestTimeout, payload)
	return err
}

// decodeTolerant decodes either a JSON object or a single-element array
// wrapping one, which some workflow nodes produce.
func decodeTolerant(data []byte, out interface{}) error {
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("neither object nor array: %s", truncate(data, 256))
	}
	if len(list) == 0 {
		return fmt.Errorf("empty array response")
	}
	return json.Unmarshal(list[0], out)
}
