package comments

import (
	"context"
	"sync"
	"testing"
	"time"

	"doggodiary/internal/fixtures"
	"doggodiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommentAPI struct {
	mu          sync.Mutex
	list        []models.Comment
	createErr   error
	deleteErr   error
	nextID      uint
	createCalls int
	deleteCalls int
}

func (s *stubCommentAPI) ListComments(_ context.Context, _ uint) ([]models.Comment, error) {
	return append([]models.Comment(nil), s.list...), nil
}

func (s *stubCommentAPI) CreateComment(_ context.Context, content string, _ uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	return &models.Comment{ID: s.nextID, Content: content, CreatedAt: time.Now()}, nil
}

func (s *stubCommentAPI) DeleteComment(_ context.Context, _ uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	return s.deleteErr
}

type stubSession struct {
	user      *models.UserProfile
	canDelete func(models.Comment) bool
}

func (s stubSession) IsAuthenticated() bool            { return s.user != nil }
func (s stubSession) CurrentUser() *models.UserProfile { return s.user }

func (s stubSession) CanDeleteComment(c models.Comment) bool {
	if s.canDelete != nil {
		return s.canDelete(c)
	}
	return s.user != nil && (s.user.IsAdmin() || s.user.UserID == c.User.ID)
}

func TestPanel_SendPrependsNewestFirst(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	stub := &stubCommentAPI{}
	panel := NewPanel(stub, stubSession{user: &user}, 7)
	require.NoError(t, panel.Load(context.Background()))

	require.NoError(t, panel.Send(context.Background(), "first!"))
	require.NoError(t, panel.Send(context.Background(), "second!"))

	list := panel.Comments()
	require.Len(t, list, 2)
	assert.Equal(t, "second!", list[0].Content, "newest comment renders first")
	assert.Equal(t, "first!", list[1].Content)
	assert.Equal(t, user.Username, list[0].User.Username, "session user attached to the acknowledged comment")
}

func TestPanel_AnonymousSendShowsNoticeWithoutRequest(t *testing.T) {
	t.Parallel()

	stub := &stubCommentAPI{}
	panel := NewPanel(stub, stubSession{}, 7)

	require.NoError(t, panel.Send(context.Background(), "hello"))
	assert.Zero(t, stub.createCalls)
	assert.Empty(t, panel.Comments())

	assert.Equal(t, AnonymousNotice, panel.Notice())
	assert.Empty(t, panel.Notice(), "notice is transient")
}

func TestPanel_SendEmptyIsRejected(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	stub := &stubCommentAPI{}
	panel := NewPanel(stub, stubSession{user: &user}, 7)

	err := panel.Send(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	assert.Zero(t, stub.createCalls)
}

func TestPanel_ExpiredSessionDuringSend(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	stub := &stubCommentAPI{createErr: models.NewSessionExpiredError()}
	panel := NewPanel(stub, stubSession{user: &user}, 7)

	err := panel.Send(context.Background(), "too late")
	require.Error(t, err)
	assert.True(t, models.IsSessionExpired(err))
	assert.Empty(t, panel.Comments(), "failed send adds nothing")
	assert.Equal(t, AnonymousNotice, panel.Notice())
}

func TestPanel_DeleteOptimisticWithRevert(t *testing.T) {
	t.Parallel()

	user := fixtures.User(models.RoleUser)
	own := fixtures.Comment(user)
	other := fixtures.Comment(fixtures.User(models.RoleUser))
	stub := &stubCommentAPI{
		list:      []models.Comment{own, other},
		deleteErr: models.NewRequestFailedError("forbidden", 403, nil),
	}
	panel := NewPanel(stub, stubSession{user: &user}, 7)
	require.NoError(t, panel.Load(context.Background()))

	err := panel.Delete(context.Background(), own.ID)
	require.Error(t, err)

	list := panel.Comments()
	require.Len(t, list, 2, "refused deletion restores the entry")
	assert.Equal(t, own.ID, list[0].ID, "restored at its original position")

	stub.mu.Lock()
	stub.deleteErr = nil
	stub.mu.Unlock()
	require.NoError(t, panel.Delete(context.Background(), own.ID))
	assert.Len(t, panel.Comments(), 1)
}

func TestPanel_DeleteAffordance(t *testing.T) {
	t.Parallel()

	owner := fixtures.User(models.RoleUser)
	admin := fixtures.Admin()
	stranger := fixtures.User(models.RoleUser)
	stranger.UserID = owner.UserID + 1
	comment := fixtures.Comment(owner)
	stub := &stubCommentAPI{list: []models.Comment{comment}}

	t.Run("stranger cannot delete", func(t *testing.T) {
		t.Parallel()
		panel := NewPanel(stub, stubSession{user: &stranger}, 7)
		require.NoError(t, panel.Load(context.Background()))
		err := panel.Delete(context.Background(), comment.ID)
		require.Error(t, err)
		assert.True(t, models.IsAuthorization(err))
		assert.Len(t, panel.Comments(), 1)
	})

	t.Run("admin can delete", func(t *testing.T) {
		t.Parallel()
		panel := NewPanel(stub, stubSession{user: &admin}, 7)
		require.NoError(t, panel.Load(context.Background()))
		assert.True(t, panel.CanDelete(comment))
	})
}
