package model

import "time"

// WorkspaceFileResponse represents the response for a workspace file read
type WorkspaceFileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int    `json:"size"`
}

// WorkspaceEntry is one item of a directory listing
type WorkspaceEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"isDir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// WorkspaceListResponse represents the response for a directory listing
type WorkspaceListResponse struct {
	Path    string           `json:"path"`
	Entries []WorkspaceEntry `json:"entries"`
}
