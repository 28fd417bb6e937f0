package activities

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ReconcileOutput struct {
	Action string `json:"action"`
}

type ProcessDocumentInput struct {
	Path string `json:"path"`
}

type ProcessDocumentOutput struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

type DeleteDocumentInput struct {
	Name string `json:"name"`
}

type DeleteDocumentOutput struct {
	Deleted bool `json:"deleted"`
}
