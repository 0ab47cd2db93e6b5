package domain

// WorkflowFolder groups the workflow files found in one directory of a
// content source. Folder order is the depth-first traversal order of the
// source tree and file order is the order the source reported.
type WorkflowFolder struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}
