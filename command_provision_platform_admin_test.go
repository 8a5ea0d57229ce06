package provision_test

import (
	"context"
	"database/sql"
	"testing"

	provision "github.com/goliatone/go-provision"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func expectPlatformAdminRole(profiles *MockProfiles, roles *MockRoles, userID uuid.UUID) {
	roleID := uuid.New()

	profiles.On("ResolveTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&provision.Profile{ID: uuid.New(), UserID: &userID}, nil)
	roles.On("GetByNameTx", mock.Anything, mock.Anything, provision.RolePlatformAdmin).
		Return(&provision.Role{ID: roleID, Name: provision.RolePlatformAdmin}, nil)
	profiles.On("AssignRoleTx", mock.Anything, mock.Anything, mock.Anything, roleID).
		Return(&provision.Profile{}, nil)
}

func TestProvisionPlatformAdminCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo, users, profiles, roles, _, _, history := storeRepMocks()
	sink := &capturingSink{}

	userID := uuid.New()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(nil, repository.NewRecordNotFound())
	users.On("CreateIgnoreConflictTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&provision.User{ID: userID, Username: "root"}, true, nil)
	history.On("AppendTx", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(&provision.PasswordHistoryEntry{}, nil)
	expectPlatformAdminRole(profiles, roles, userID)
	users.On("SetAdminFlagsTx", mock.Anything, mock.Anything, userID).
		Return(&provision.User{ID: userID, Username: "root", IsStaff: true, IsSuperuser: true}, nil)

	handler := provision.NewProvisionPlatformAdminHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.NewProvisionPlatformAdminMessage("root", "P@ss1", "root@x.com"))
	require.NoError(t, err)

	users.AssertNotCalled(t, "UpdateCredentialsTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	created := sink.byType(provision.ActivityEventPlatformAdminCreated)
	require.Len(t, created, 1)
	require.Equal(t, provision.RolePlatformAdmin, created[0].Role)
	require.Empty(t, sink.byType(provision.ActivityEventPlatformAdminUpdated))
}

func TestProvisionPlatformAdminRotatesExisting(t *testing.T) {
	ctx := context.Background()
	repo, users, profiles, roles, _, _, history := storeRepMocks()
	sink := &capturingSink{}

	userID := uuid.New()
	existing := &provision.User{ID: userID, Username: "root", Email: "old@x.com"}

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").Return(existing, nil)
	users.On("UpdateCredentialsTx", mock.Anything, mock.Anything, userID, mock.AnythingOfType("string"), "new@x.com").
		Return(&provision.User{ID: userID, Username: "root", Email: "new@x.com"}, nil)
	profiles.On("SetEmailLowerTx", mock.Anything, mock.Anything, mock.Anything, "new@x.com").
		Return(&provision.Profile{}, nil)
	history.On("AppendTx", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(&provision.PasswordHistoryEntry{}, nil)
	expectPlatformAdminRole(profiles, roles, userID)
	users.On("SetAdminFlagsTx", mock.Anything, mock.Anything, userID).
		Return(&provision.User{ID: userID, Username: "root", IsStaff: true, IsSuperuser: true}, nil)

	handler := provision.NewProvisionPlatformAdminHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.NewProvisionPlatformAdminMessage("root", "Rotat3d", "new@x.com"))
	require.NoError(t, err)

	users.AssertNotCalled(t, "CreateIgnoreConflictTx", mock.Anything, mock.Anything, mock.Anything)

	require.Len(t, sink.byType(provision.ActivityEventPlatformAdminUpdated), 1)
	require.Empty(t, sink.byType(provision.ActivityEventPlatformAdminCreated))
}

func TestProvisionPlatformAdminWithoutForceUpdateConflicts(t *testing.T) {
	ctx := context.Background()
	repo, users, _, _, _, _, _ := storeRepMocks()

	userID := uuid.New()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)
	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(&provision.User{ID: userID, Username: "root"}, nil)

	handler := provision.NewProvisionPlatformAdminHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.ProvisionPlatformAdminMessage{
		Username: "root",
		Password: "P@ss1",
		Email:    "root@x.com",
	})
	require.Error(t, err)
	require.True(t, provision.IsConflict(err))

	users.AssertNotCalled(t, "UpdateCredentialsTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "SetAdminFlagsTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionPlatformAdminClonesTemplateGroups(t *testing.T) {
	ctx := context.Background()
	repo, users, profiles, roles, groups, _, history := storeRepMocks()

	userID := uuid.New()
	templateID := uuid.New()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(nil, repository.NewRecordNotFound())
	users.On("CreateIgnoreConflictTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&provision.User{ID: userID, Username: "root"}, true, nil)
	history.On("AppendTx", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(&provision.PasswordHistoryEntry{}, nil)
	expectPlatformAdminRole(profiles, roles, userID)
	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "superadmin").
		Return(&provision.User{ID: templateID, Username: "superadmin"}, nil)
	groups.On("CloneMembershipsTx", mock.Anything, mock.Anything, templateID, userID).Return(nil)
	users.On("SetAdminFlagsTx", mock.Anything, mock.Anything, userID).
		Return(&provision.User{ID: userID, Username: "root", IsStaff: true, IsSuperuser: true}, nil)

	handler := provision.NewProvisionPlatformAdminHandler(repo).
		WithTemplateAdmin("superadmin").
		WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.NewProvisionPlatformAdminMessage("root", "P@ss1", "root@x.com"))
	require.NoError(t, err)

	groups.AssertExpectations(t)
}

func TestProvisionPlatformAdminMissingTemplateFails(t *testing.T) {
	ctx := context.Background()
	repo, users, profiles, roles, groups, _, history := storeRepMocks()

	userID := uuid.New()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(nil, repository.NewRecordNotFound())
	users.On("CreateIgnoreConflictTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&provision.User{ID: userID, Username: "root"}, true, nil)
	history.On("AppendTx", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(&provision.PasswordHistoryEntry{}, nil)
	expectPlatformAdminRole(profiles, roles, userID)
	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "ghost").
		Return(nil, repository.NewRecordNotFound())

	handler := provision.NewProvisionPlatformAdminHandler(repo).
		WithTemplateAdmin("ghost").
		WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.NewProvisionPlatformAdminMessage("root", "P@ss1", "root@x.com"))
	require.Error(t, err)
	require.True(t, provision.IsNotFound(err))

	groups.AssertNotCalled(t, "CloneMembershipsTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionPlatformAdminValidatesMessage(t *testing.T) {
	ctx := context.Background()
	repo, _, _, _, _, _, _ := storeRepMocks()

	handler := provision.NewProvisionPlatformAdminHandler(repo).WithLogger(testLogger{})

	cases := []struct {
		name string
		msg  provision.ProvisionPlatformAdminMessage
	}{
		{
			name: "missing username",
			msg:  provision.NewProvisionPlatformAdminMessage("", "P@ss1", "root@x.com"),
		},
		{
			name: "missing password",
			msg:  provision.NewProvisionPlatformAdminMessage("root", "", "root@x.com"),
		},
		{
			name: "bad email",
			msg:  provision.NewProvisionPlatformAdminMessage("root", "P@ss1", "not-an-email"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := handler.Execute(ctx, tc.msg)
			require.Error(t, err)
		})
	}

	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionPlatformAdminRecoversFromInsertRace(t *testing.T) {
	ctx := context.Background()
	repo, users, profiles, roles, _, _, history := storeRepMocks()

	userID := uuid.New()
	winner := &provision.User{ID: userID, Username: "root"}

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(nil, repository.NewRecordNotFound()).Once()
	// the conflicting insert writes nothing and raises no statement error
	users.On("CreateIgnoreConflictTx", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, false, nil).Once()
	users.On("GetByUsernameTx", mock.Anything, mock.Anything, "root").
		Return(winner, nil).Once()
	users.On("UpdateCredentialsTx", mock.Anything, mock.Anything, userID, mock.Anything, "root@x.com").
		Return(winner, nil)
	profiles.On("SetEmailLowerTx", mock.Anything, mock.Anything, mock.Anything, "root@x.com").
		Return(&provision.Profile{}, nil)
	history.On("AppendTx", mock.Anything, mock.Anything, userID, mock.Anything).
		Return(&provision.PasswordHistoryEntry{}, nil)
	expectPlatformAdminRole(profiles, roles, userID)
	users.On("SetAdminFlagsTx", mock.Anything, mock.Anything, userID).
		Return(winner, nil)

	handler := provision.NewProvisionPlatformAdminHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, provision.NewProvisionPlatformAdminMessage("root", "P@ss1", "root@x.com"))
	require.NoError(t, err)

	users.AssertExpectations(t)
}
