package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringsUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma separated string", `"Go, Python , SQL"`, []string{"Go", "Python", "SQL"}},
		{"single value", `"Inglés"`, []string{"Inglés"}},
		{"list", `["Excel","Power BI"]`, []string{"Excel", "Power BI"}},
		{"list with blanks", `["a","","  ","b"]`, []string{"a", "b"}},
		{"null", `null`, nil},
		{"empty string", `""`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f FlexStrings
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &f))
			assert.Equal(t, FlexStrings(tc.want), f)
		})
	}

	var f FlexStrings
	assert.Error(t, json.Unmarshal([]byte(`{"not":"supported"}`), &f))
}

func TestFlexStringsJoin(t *testing.T) {
	assert.Equal(t, "a, b", FlexStrings{"a", "b"}.Join())
	assert.Equal(t, "", FlexStrings(nil).Join())
}

func TestDriveFileUnmarshal(t *testing.T) {
	var obj DriveFile
	require.NoError(t, json.Unmarshal([]byte(`{"id":"f1","name":"cv.pdf","url":"https://drive/f1"}`), &obj))
	assert.Equal(t, "f1", obj.ID)
	assert.Equal(t, "cv.pdf", obj.Name)

	var bare DriveFile
	require.NoError(t, json.Unmarshal([]byte(`"cv_legacy.pdf"`), &bare))
	assert.Equal(t, DriveFile{Name: "cv_legacy.pdf"}, bare)
}

func TestDriveFileIdentifier(t *testing.T) {
	assert.Equal(t, "https://drive/f1", DriveFile{ID: "f1", Name: "cv.pdf", URL: "https://drive/f1"}.Identifier())
	assert.Equal(t, "f1", DriveFile{ID: "f1", Name: "cv.pdf"}.Identifier())
	assert.Equal(t, "cv.pdf", DriveFile{Name: "cv.pdf"}.Identifier())
}

func TestEvaluationResultProcessed(t *testing.T) {
	ok := EvaluationResult{Evaluacion: &Evaluation{Match: 87.5}}
	assert.True(t, ok.Processed())

	withError := EvaluationResult{Error: "archivo corrupto", Evaluacion: &Evaluation{Match: 50}}
	assert.False(t, withError.Processed())

	noVerdict := EvaluationResult{}
	assert.False(t, noVerdict.Processed())

	outOfRange := EvaluationResult{Evaluacion: &Evaluation{Match: 140}}
	assert.False(t, outOfRange.Processed())
}
