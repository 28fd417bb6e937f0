package workflows

type DocumentIngestInput struct {
	InputDir  string `json:"input_dir"`
	Reconcile bool   `json:"reconcile"`
}

type FileFailure struct {
	File    string `json:"file"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type DocumentIngestResult struct {
	Found     int           `json:"found"`
	Processed []string      `json:"processed"`
	Skipped   []string      `json:"skipped"`
	Failed    []FileFailure `json:"failed"`
	Reconcile string        `json:"reconcile,omitempty"`
}

// DocumentIngestProgress is returned by the GetProgress query.
type DocumentIngestProgress struct {
	Total     int               `json:"total"`
	Done      int               `json:"done"`
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Current   string            `json:"current,omitempty"`
	PerFile   map[string]string `json:"per_file"`
	Errors    map[string]string `json:"errors"`
}

type DeleteDocumentInput struct {
	Name string `json:"name"`
}
