package ticket

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type Attachment struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentPath returns the storage key for a file attached to a message.
// Directory components in fileName are discarded.
func AttachmentPath(messageID, fileName string) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("message ID is required")
	}
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("invalid file name: %q", fileName)
	}
	return path.Join(messageID, base), nil
}

// GroupByMessage groups attachments by message id, keeping input order.
func GroupByMessage(attachments []*Attachment) map[string][]Attachment {
	out := make(map[string][]Attachment)
	for _, a := range attachments {
		out[a.MessageID] = append(out[a.MessageID], *a)
	}
	return out
}
