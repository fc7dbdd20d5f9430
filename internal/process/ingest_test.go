package process

import (
	"testing"

	"recruitflow-go/internal/engine"

	"github.com/stretchr/testify/assert"
)

func TestPendingFiles(t *testing.T) {
	files := []engine.DriveFile{
		{ID: "f1", Name: "ana.pdf", URL: "https://drive/f1"},
		{ID: "f2", Name: "bruno.pdf", URL: "https://drive/f2"},
		{ID: "f3", Name: "carla.pdf", URL: "https://drive/f3"},
		{ID: "f4", Name: "diego.pdf"},
	}

	t.Run("skips files already evaluated by URL or name", func(t *testing.T) {
		seen := map[string]struct{}{
			"https://drive/f1": {}, // prior run stored the URL
			"bruno.pdf":        {}, // prior run stored only the file name
		}
		pending := pendingFiles(files, seen)
		assert.Equal(t, []engine.DriveFile{files[2], files[3]}, pending)
	})

	t.Run("fully covered folder yields nothing", func(t *testing.T) {
		seen := map[string]struct{}{
			"https://drive/f1": {},
			"https://drive/f2": {},
			"carla.pdf":        {},
			"diego.pdf":        {},
		}
		assert.Empty(t, pendingFiles(files, seen),
			"a rerun over an already-ingested folder must evaluate nothing")
	})

	t.Run("empty identifiers never match", func(t *testing.T) {
		nameless := []engine.DriveFile{{ID: "f5"}, {ID: "f6"}}
		seen := map[string]struct{}{"": {}}
		assert.Len(t, pendingFiles(nameless, seen), 2)
	})

	t.Run("nothing seen passes everything through", func(t *testing.T) {
		assert.Equal(t, files, pendingFiles(files, map[string]struct{}{}))
	})
}
