package usecases

import (
	"context"
	"io"
	"path"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type UploadAttachmentCommand struct {
	MessageID string
	FileName  string
	FileSize  int64
	Content   io.Reader
}

type UploadAttachmentUseCase struct {
	blobs       ticket.BlobStore
	attachments ticket.AttachmentRepository
	logger      logger.Interface
	now         biztime.Clock
}

func NewUploadAttachmentUseCase(
	blobs ticket.BlobStore,
	attachments ticket.AttachmentRepository,
	logger logger.Interface,
) *UploadAttachmentUseCase {
	return &UploadAttachmentUseCase{
		blobs:       blobs,
		attachments: attachments,
		logger:      logger,
		now:         biztime.NowUTC,
	}
}

// Execute stores the blob under {messageID}/{fileName} and then records it.
// A record failure leaves the blob in place; its path is logged for sweeping.
func (uc *UploadAttachmentUseCase) Execute(ctx context.Context, cmd UploadAttachmentCommand) (*ticket.Attachment, error) {
	uc.logger.Infow("executing upload attachment use case",
		"message_id", cmd.MessageID,
		"file_name", cmd.FileName,
		"file_size", cmd.FileSize,
	)

	if cmd.Content == nil {
		return nil, errors.NewValidationError("file content is required")
	}
	if cmd.FileSize < 0 {
		return nil, errors.NewValidationError("file size must not be negative")
	}
	key, err := ticket.AttachmentPath(cmd.MessageID, cmd.FileName)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.blobs.Store(ctx, key, cmd.Content); err != nil {
		uc.logger.Errorw("failed to store attachment blob", "path", key, "error", err)
		return nil, errors.NewInternalError("failed to upload attachment").WithCause(err)
	}

	a := &ticket.Attachment{
		MessageID: cmd.MessageID,
		FileName:  path.Base(key),
		FilePath:  key,
		FileSize:  cmd.FileSize,
		CreatedAt: uc.now(),
	}
	if err := uc.attachments.Create(ctx, a); err != nil {
		uc.logger.Warnw("attachment blob orphaned", "path", key, "message_id", cmd.MessageID)
		uc.logger.Errorw("failed to create attachment record", "message_id", cmd.MessageID, "error", err)
		return nil, errors.NewInternalError("failed to record attachment").WithCause(err)
	}

	return a, nil
}
