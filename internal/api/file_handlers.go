package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/service"
)

func (s *Server) registerFileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/files",
		Summary:     "List files",
		Description: "Returns files carrying any of the given tags, or every file when no tag is given",
		Tags:        []string{"Files"},
	}, s.handleListFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUntaggedFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/untagged",
		Summary:     "List untagged files",
		Tags:        []string{"Files"},
	}, s.handleListUntaggedFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSelectedFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/selected",
		Summary:     "List files of the selection",
		Description: "Returns files carrying any selected tag, or every file when nothing is selected",
		Tags:        []string{"Files"},
	}, s.handleListSelectedFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsertFile",
		Method:      http.MethodPost,
		Path:        "/api/v1/files",
		Summary:     "Upsert file",
		Description: "Stores metadata reported for an image file",
		Tags:        []string{"Files"},
	}, s.handleUpsertFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFile",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/{id}",
		Summary:     "Get file",
		Tags:        []string{"Files"},
	}, s.handleGetFile)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteFile",
		Method:        http.MethodDelete,
		Path:          "/api/v1/files/{id}",
		Summary:       "Delete file",
		Tags:          []string{"Files"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFileComment",
		Method:      http.MethodPut,
		Path:        "/api/v1/files/{id}/comment",
		Summary:     "Set file comment",
		Description: "Replaces the comment. The change is visible at once and persisted in the background",
		Tags:        []string{"Files"},
	}, s.handleSetComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFileTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/files/{id}/tags",
		Summary:     "Tag file",
		Tags:        []string{"Files"},
	}, s.handleAddFileTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFileTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/files/{id}/tags/remove",
		Summary:     "Untag file",
		Tags:        []string{"Files"},
	}, s.handleRemoveFileTags)
}

// ListFilesInput filters files by tag.
type ListFilesInput struct {
	Tags []string `query:"tags" doc:"Comma separated tag ids; files with any of them match"`
}

// FileListResponse is a list of files.
type FileListResponse struct {
	Total int            `json:"total" doc:"Number of files"`
	Files []*domain.File `json:"files" doc:"Files, newest first"`
}

// FileListOutput wraps a file list for Huma.
type FileListOutput struct {
	Body FileListResponse
}

// FileOutput wraps one file for Huma.
type FileOutput struct {
	Body *domain.File
}

// FileIDInput contains the file id path parameter.
type FileIDInput struct {
	ID string `path:"id" doc:"File ID"`
}

// UpsertFileRequest is file metadata from the metadata provider.
type UpsertFileRequest struct {
	ID           string            `json:"id,omitempty" doc:"File ID; generated when omitted"`
	Name         string            `json:"name" minLength:"1" doc:"File name"`
	AbsolutePath string            `json:"absolute_path" minLength:"1" doc:"Absolute path on disk"`
	Extension    string            `json:"extension" minLength:"1" doc:"Image extension"`
	Size         int64             `json:"size,omitempty" minimum:"0" doc:"Size in bytes"`
	Width        int               `json:"width,omitempty" minimum:"0" doc:"Width in pixels"`
	Height       int               `json:"height,omitempty" minimum:"0" doc:"Height in pixels"`
	DateAdded    time.Time         `json:"date_added,omitempty" doc:"Import time; now when omitted"`
	Tags         []string          `json:"tags,omitempty" doc:"Tag ids"`
	Comments     string            `json:"comments,omitempty" doc:"Comment"`
	Metadata     map[string]string `json:"metadata,omitempty" doc:"Extra metadata such as Creator"`
}

// UpsertFileInput wraps the upsert request for Huma.
type UpsertFileInput struct {
	Body UpsertFileRequest
}

// CommentRequest sets a file comment.
type CommentRequest struct {
	Comments string `json:"comments" doc:"New comment; empty clears it"`
}

// CommentInput wraps the comment request for Huma.
type CommentInput struct {
	ID   string `path:"id" doc:"File ID"`
	Body CommentRequest
}

// CommentResponse echoes the stored comment.
type CommentResponse struct {
	Comments string `json:"comments" doc:"Stored comment"`
}

// CommentOutput wraps the comment response for Huma.
type CommentOutput struct {
	Body CommentResponse
}

// FileTagsRequest lists tags to attach or detach.
type FileTagsRequest struct {
	TagIDs []string `json:"tag_ids" minItems:"1" doc:"Tag ids"`
}

// FileTagsInput wraps the file tags request for Huma.
type FileTagsInput struct {
	ID   string `path:"id" doc:"File ID"`
	Body FileTagsRequest
}

func (s *Server) handleListFiles(ctx context.Context, input *ListFilesInput) (*FileListOutput, error) {
	res, err := s.services.Search.FilesWithTags(ctx, input.Tags)
	if err != nil {
		return nil, err
	}
	return fileList(res.Files), nil
}

func (s *Server) handleListUntaggedFiles(ctx context.Context, _ *struct{}) (*FileListOutput, error) {
	return fileList(s.services.Files.ListUntagged(ctx)), nil
}

func (s *Server) handleListSelectedFiles(ctx context.Context, _ *struct{}) (*FileListOutput, error) {
	res, err := s.services.Search.FilesWithTags(ctx, s.services.Hierarchy.Selection())
	if err != nil {
		return nil, err
	}
	return fileList(res.Files), nil
}

func (s *Server) handleUpsertFile(ctx context.Context, input *UpsertFileInput) (*FileOutput, error) {
	b := input.Body
	f, err := s.services.Files.Upsert(ctx, service.UpsertFileRequest{
		ID:           b.ID,
		Name:         b.Name,
		AbsolutePath: b.AbsolutePath,
		Extension:    b.Extension,
		Size:         b.Size,
		Width:        b.Width,
		Height:       b.Height,
		DateAdded:    b.DateAdded,
		Tags:         b.Tags,
		Comments:     b.Comments,
		Metadata:     b.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &FileOutput{Body: f}, nil
}

func (s *Server) handleGetFile(ctx context.Context, input *FileIDInput) (*FileOutput, error) {
	f, err := s.services.Files.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &FileOutput{Body: f}, nil
}

func (s *Server) handleDeleteFile(ctx context.Context, input *FileIDInput) (*struct{}, error) {
	return nil, s.services.Files.Delete(ctx, input.ID)
}

func (s *Server) handleSetComment(ctx context.Context, input *CommentInput) (*CommentOutput, error) {
	applied, err := s.services.Files.SetComment(ctx, input.ID, input.Body.Comments)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: CommentResponse{Comments: applied}}, nil
}

func (s *Server) handleAddFileTags(ctx context.Context, input *FileTagsInput) (*FileOutput, error) {
	f, err := s.services.Files.AddTags(ctx, input.ID, input.Body.TagIDs)
	if err != nil {
		return nil, err
	}
	return &FileOutput{Body: f}, nil
}

func (s *Server) handleRemoveFileTags(ctx context.Context, input *FileTagsInput) (*FileOutput, error) {
	f, err := s.services.Files.RemoveTags(ctx, input.ID, input.Body.TagIDs)
	if err != nil {
		return nil, err
	}
	return &FileOutput{Body: f}, nil
}

func fileList(files []*domain.File) *FileListOutput {
	if files == nil {
		files = []*domain.File{}
	}
	return &FileListOutput{Body: FileListResponse{Total: len(files), Files: files}}
}
