package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

func TestAttachmentRepository_CreateAndList(t *testing.T) {
	repo := NewAttachmentRepository(setupTestDB(t), logger.NewNop())
	ctx := context.Background()

	for _, a := range []*ticket.Attachment{
		{MessageID: "m1", FileName: "a.png", FilePath: "m1/a.png", FileSize: 10, CreatedAt: baseTime},
		{MessageID: "m1", FileName: "b.pdf", FilePath: "m1/b.pdf", FileSize: 20, CreatedAt: baseTime},
		{MessageID: "m2", FileName: "c.txt", FilePath: "m2/c.txt", FileSize: 30, CreatedAt: baseTime},
		{MessageID: "m3", FileName: "d.txt", FilePath: "m3/d.txt", FileSize: 40, CreatedAt: baseTime},
	} {
		require.NoError(t, repo.Create(ctx, a))
		assert.NotEmpty(t, a.ID)
	}

	list, err := repo.ListByMessageIDs(ctx, []string{"m1", "m2"})
	require.NoError(t, err)

	grouped := ticket.GroupByMessage(list)
	assert.Len(t, grouped["m1"], 2)
	assert.Len(t, grouped["m2"], 1)
	assert.NotContains(t, grouped, "m3")
	assert.Equal(t, int64(30), grouped["m2"][0].FileSize)
}
