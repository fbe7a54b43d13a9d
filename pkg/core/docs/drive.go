// Package docs stores and routes program documents on Google Drive and
// prepares their content for LLM extraction.
package docs

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Document is the metadata the suite tracks per stored file.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	WebLink  string `json:"webLink"`
	FolderID string `json:"folderId"`
}

// DriveStore wraps the Drive v3 API for one shared folder tree.
type DriveStore struct {
	svc *drive.Service
}

// NewDriveStore builds a Drive client with the same credential
// conventions as the sheets store.
func NewDriveStore(ctx context.Context) (*DriveStore, error) {
	var opts []option.ClientOption
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveStore{svc: svc}, nil
}

// Upload stores content as a new file under folderID and returns its
// metadata.
func (d *DriveStore) Upload(ctx context.Context, folderID, name, mimeType string, content string) (Document, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}
	created, err := d.svc.Files.Create(meta).
		Media(strings.NewReader(content)).
		Fields("id", "name", "mimeType", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return Document{}, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return Document{
		ID:       created.Id,
		Name:     created.Name,
		MimeType: created.MimeType,
		WebLink:  created.WebViewLink,
		FolderID: folderID,
	}, nil
}

// List returns the documents directly under folderID.
func (d *DriveStore) List(ctx context.Context, folderID string) ([]Document, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	resp, err := d.svc.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, webViewLink)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	out := make([]Document, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, Document{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			WebLink:  f.WebViewLink,
			FolderID: folderID,
		})
	}
	return out, nil
}

// Route moves a document into another folder. Fire-and-forget routing:
// the caller publishes the corresponding event, nothing here retries.
func (d *DriveStore) Route(ctx context.Context, docID, fromFolderID, toFolderID string) error {
	_, err := d.svc.Files.Update(docID, nil).
		AddParents(toFolderID).
		RemoveParents(fromFolderID).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to route document %s: %w", docID, err)
	}
	return nil
}
