package service

import (
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/internal/workspace"
	"github.com/sirupsen/logrus"
)

// WorkspaceService serves files from the sandboxed workspace root
type WorkspaceService struct {
	guard *workspace.Guard
	log   logrus.FieldLogger
}

// NewWorkspaceService creates a workspace service
func NewWorkspaceService(guard *workspace.Guard, log logrus.FieldLogger) *WorkspaceService {
	return &WorkspaceService{
		guard: guard,
		log:   log.WithField("component", "workspace"),
	}
}

// Root returns the configured workspace root
func (s *WorkspaceService) Root() string {
	return s.guard.Root()
}

// ReadFile returns the contents of one workspace file
func (s *WorkspaceService) ReadFile(path string) (*model.WorkspaceFileResponse, error) {
	content, err := s.guard.ReadFile(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("Workspace read failed")
		return nil, err
	}

	return &model.WorkspaceFileResponse{
		Path:    path,
		Content: content,
		Size:    len(content),
	}, nil
}

// List returns the entries of a workspace directory; an empty path lists the root
func (s *WorkspaceService) List(path string) (*model.WorkspaceListResponse, error) {
	if path == "" {
		path = s.guard.Root()
	}

	entries, err := s.guard.List(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("Workspace listing failed")
		return nil, err
	}

	out := make([]model.WorkspaceEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.WorkspaceEntry{
			Name:    e.Name,
			Path:    e.Path,
			IsDir:   e.IsDir,
			Size:    e.Size,
			ModTime: e.ModTime,
		})
	}

	return &model.WorkspaceListResponse{
		Path:    path,
		Entries: out,
	}, nil
}
