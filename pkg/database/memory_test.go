package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJoinTwiceKeepsSingleMembership(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	owner, err := store.EnsureUser(ctx, 1)
	require.NoError(t, err)
	community, err := store.CreateCommunity(ctx, owner.ID, "Vecinos", "", "general", "")
	require.NoError(t, err)

	_, err = store.EnsureUser(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, store.JoinCommunity(ctx, community.ID, 2))
	assert.ErrorIs(t, store.JoinCommunity(ctx, community.ID, 2), ErrDuplicate)

	// 成员表里该(社区,用户)对只有一行：创建者 + 用户2
	view, err := store.GetCommunity(ctx, community.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.MemberCount)
	assert.True(t, view.IsJoined)
	assert.False(t, view.IsAdmin)
}

func TestMemoryLeaveWithoutMembership(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	owner, _ := store.EnsureUser(ctx, 1)
	community, _ := store.CreateCommunity(ctx, owner.ID, "Vecinos", "", "", "")

	assert.ErrorIs(t, store.LeaveCommunity(ctx, community.ID, 99), ErrNotMember)
}

func TestMemoryCreatorIsAdminMember(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	owner, _ := store.EnsureUser(ctx, 5)
	community, err := store.CreateCommunity(ctx, owner.ID, "Alumbrado", "focos", "servicios", "luz")
	require.NoError(t, err)

	view, err := store.GetCommunity(ctx, community.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.MemberCount)
	assert.True(t, view.IsJoined)
	assert.True(t, view.IsAdmin)

	mine, err := store.ListUserCommunities(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, community.ID, mine[0].ID)
}

func TestMemoryEnsureMembershipMissingCommunity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// 社区不存在时静默跳过
	assert.NoError(t, store.EnsureMembership(ctx, 999999, 3))

	messages, err := store.ListMessages(ctx, 999999, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMemoryDeleteReportMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.CreateReport(ctx, "t", "d", "u", "c", "", "")
	require.NoError(t, err)

	deleted, err := store.DeleteReport(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, deleted)

	// 删除未命中时表计数不变
	total, _, err := store.CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMemoryUpdateReportAllowList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	report, _ := store.CreateReport(ctx, "viejo", "d", "u", "c", "", "")

	updated, err := store.UpdateReportPartial(ctx, report.ID, map[string]string{
		"titulo": "nuevo",
		"estado": "Resuelto", // 白名单外，忽略
	})
	require.NoError(t, err)
	assert.Equal(t, "nuevo", updated.Titulo)
	assert.Equal(t, "Pendiente", updated.Estado)

	_, err = store.UpdateReportPartial(ctx, report.ID, map[string]string{"estado": "x"})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestMemoryMessagesNewestFirstPaginated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	owner, _ := store.EnsureUser(ctx, 1)
	community, _ := store.CreateCommunity(ctx, owner.ID, "Chat", "", "", "")

	for _, text := range []string{"uno", "dos", "tres"} {
		_, err := store.CreateMessage(ctx, community.ID, owner.ID, text)
		require.NoError(t, err)
	}

	messages, err := store.ListMessages(ctx, community.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "tres", messages[0].Texto)
	assert.Equal(t, "dos", messages[1].Texto)

	rest, err := store.ListMessages(ctx, community.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "uno", rest[0].Texto)
}

func TestMemoryDuplicateEmailRejected(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "Ana", "ana@example.com", "hash")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "Otra Ana", "ana@example.com", "hash")
	assert.ErrorIs(t, err, ErrDuplicate)
}
