package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recruitflow-go/internal/apperr"
	"recruitflow-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.EngineConfig{
		CreateFolderURL:        srv.URL + "/create-folder",
		ListFilesURL:           srv.URL + "/list-files",
		EvaluateCVURL:          srv.URL + "/evaluate-cv",
		UploadCVURL:            srv.URL + "/upload-cv",
		PropagateResultsURL:    srv.URL + "/propagate-results",
		RequestTimeoutSeconds:  5,
		EvaluateTimeoutMinutes: 1,
	})
	require.NoError(t, err)
	return client, srv
}

func TestCreateFolder(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0001-20250314-00001 - Analista", body["folder_name"])
		json.NewEncoder(w).Encode(map[string]string{
			"folder_id":  "drive-1",
			"folder_url": "https://drive/folders/drive-1",
		})
	})

	info, err := client.CreateFolder(context.Background(), "0001-20250314-00001 - Analista")
	require.NoError(t, err)
	assert.Equal(t, "drive-1", info.FolderID)
	assert.Equal(t, "https://drive/folders/drive-1", info.FolderURL)
}

func TestCreateFolderIncompleteReply(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"folder_id": "drive-1"})
	})

	_, err := client.CreateFolder(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
}

func TestListFolderFilesShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrapped files", `{"files":[{"id":"a","name":"a.pdf"},{"id":"b","name":"b.pdf"}]}`, 2},
		{"legacy pdf_files", `{"pdf_files":[{"id":"a","name":"a.pdf"}]}`, 1},
		{"bare array", `[{"id":"a","name":"a.pdf"}]`, 1},
		{"bare name strings", `["a.pdf","b.pdf"]`, 2},
		{"single element wrapper", `[{"files":[{"id":"a","name":"a.pdf"}]}]`, 1},
		{"empty folder", `{"files":[]}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			files, err := client.ListFolderFiles(context.Background(), "drive-1", 3)
			require.NoError(t, err)
			assert.Len(t, files, tc.want)
		})
	}
}

func TestListFolderFilesUnexpectedShape(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"not a listing"`))
	})

	_, err := client.ListFolderFiles(context.Background(), "drive-1", 3)
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
}

func TestEvaluateCVBackfillsFileReference(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"dni":"44556677","name":"Luis Prado","evaluacion":{"name":"Luis Prado","match":91.5,"skills":"Go, SQL"}}]`))
	})

	result, err := client.EvaluateCV(context.Background(), &EvaluateRequest{
		FolderID: "drive-1",
		FileID:   "f1",
		FileName: "luis.pdf",
		FileURL:  "https://drive/f1",
	})
	require.NoError(t, err)
	assert.True(t, result.Processed())
	assert.Equal(t, "44556677", result.DNI)
	assert.InDelta(t, 91.5, result.Evaluacion.Match, 0.001)
	assert.Equal(t, FlexStrings{"Go", "SQL"}, result.Evaluacion.Skills)

	assert.Equal(t, "f1", result.FileID, "request file reference backfills a silent reply")
	assert.Equal(t, "luis.pdf", result.FileName)
	assert.Equal(t, "https://drive/f1", result.FileURL)
}

func TestUploadCV(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "drive-1", r.FormValue("drive_folder_id"))
		assert.Equal(t, "0001-20250314-00001", r.FormValue("process_code"))
		assert.Equal(t, "44556677", r.FormValue("postulant_dni"))
		assert.Equal(t, "12", r.FormValue("postulation_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cv.pdf", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{
			"file_url": "https://drive/stored",
			"file_id":  "stored-1",
		})
	})

	result, err := client.UploadCV(context.Background(), "drive-1", "0001-20250314-00001",
		"44556677", 12, "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "https://drive/stored", result.FileURL)
	assert.Equal(t, "stored-1", result.FileID)
}

func TestUploadCVEmptyAcknowledgement(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	result, err := client.UploadCV(context.Background(), "drive-1", "c", "d", 1,
		"cv.pdf", "application/pdf", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, result.FileURL)
}

func TestEngineErrorStatus(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow crashed", http.StatusInternalServerError)
	})

	_, err := client.ListFolderFiles(context.Background(), "drive-1", 3)
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	assert.Contains(t, apperr.DetailOf(err), "500")
}

func TestEngineTimeout(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.PropagateResults(ctx, &PropagatePayload{ProcessID: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.KindGatewayTimeout, apperr.KindOf(err))
}

func TestDecodeTolerant(t *testing.T) {
	var info FolderInfo
	require.NoError(t, decodeTolerant([]byte(`{"folder_id":"a","folder_url":"b"}`), &info))
	assert.Equal(t, "a", info.FolderID)

	var wrapped FolderInfo
	require.NoError(t, decodeTolerant([]byte(`[{"folder_id":"c","folder_url":"d"}]`), &wrapped))
	assert.Equal(t, "c", wrapped.FolderID)

	assert.Error(t, decodeTolerant([]byte(`[]`), &info))
	assert.Error(t, decodeTolerant([]byte(`not json`), &info))
}
