package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexStrings decodes engine fields that arrive as a string, a list of
// strings or null. The engine's workflow nodes are not consistent about
// this, so the shape is absorbed once here.
type FlexStrings []string

// UnmarshalJSON accepts `"a, b"`, `["a","b"]` and `null`.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*f = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = nil
			return nil
		}
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("flex strings: unsupported shape %s", trimmed)
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// Join renders the values as one comma-separated string for storage.
func (f FlexStrings) Join() string {
	return strings.Join(f, ", ")
}

// FolderInfo is the engine's answer to a folder-provisioning request.
type FolderInfo struct {
	FolderID  string `json:"folder_id"`
	FolderURL string `json:"folder_url"`
}

// DriveFile is one file in a process folder. Older workflow revisions
// return bare name strings; those decode with only Name set.
type DriveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UnmarshalJSON accepts either an object or a bare string.
func (d *DriveFile) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*d = DriveFile{Name: name}
		return nil
	}

	type plain DriveFile
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = DriveFile(p)
	return nil
}

// Identifier returns the most specific handle the engine gave for the file.
func (d DriveFile) Identifier() string {
	if d.URL != "" {
		return d.URL
	}
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

// Evaluation is the scored verdict for one CV.
type Evaluation struct {
	Name      string      `json:"name"`
	Match     float64     `json:"match"`
	Reason    string      `json:"reason"`
	Skills    FlexStrings `json:"skills"`
	Summary   string      `json:"summary"`
	Functions FlexStrings `json:"functions"`
}

// EvaluationResult is the normalized engine reply for one file: extracted
// identity, supplementary profile data, the file reference and, when the
// file could be processed, the evaluation itself. Error carries the
// engine-reported failure reason otherwise.
type EvaluationResult struct {
	DNI     string `json:"dni"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Telf    string `json:"telf"`
	Address string `json:"address"`

	YearsExper             *float64    `json:"years_exper"`
	LevelEduca             string      `json:"level_educa"`
	Certif                 FlexStrings `json:"certif"`
	Languages              FlexStrings `json:"languages"`
	DifferentialAdvantages FlexStrings `json:"differential_advantages"`

	FileURL  string `json:"file_url"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Error    string `json:"error"`

	Evaluacion *Evaluation `json:"evaluacion"`
}

// Processed reports whether the engine produced a usable score.
func (r *EvaluationResult) Processed() bool {
	return r.Error == "" && r.Evaluacion != nil &&
		r.Evaluacion.Match >= 0 && r.Evaluacion.Match <= 100
}

// UploadResult is the engine's answer after storing an intake-form CV in
// the process folder.
type UploadResult struct {
	FileURL string `json:"file_url"`
	FileID  string `json:"file_id"`
}

// Candidate is one shortlisted entry of a finalization payload.
type Candidate struct {
	DNI     string  `json:"dni"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Telf    string  `json:"telf"`
	Match   float64 `json:"match"`
	Summary string  `json:"summary"`
	URLCV   string  `json:"url_cv"`
}

// PropagatePayload is posted to the propagate-results webhook when a
// process is finalized.
type PropagatePayload struct {
	ProcessID   uint        `json:"process_id"`
	ProcessCode string      `json:"process_code"`
	Puesto      string      `json:"puesto"`
	Candidatos  []Candidate `json:"candidatos"`
}

// EvaluateRequest carries the job context and file reference for one
// evaluation call.
type EvaluateRequest struct {
	FolderID  string `json:"folder_id"`
	ProcessID uint   `json:"process_id"`
	FileID    string `json:"file_id,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	Puesto    string `json:"puesto"`
	PuestoID  uint   `json:"puesto_id"`
	Reque     string `json:"reque"`
	Functions string `json:"functions"`
}
