package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"goyfeed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		wantUsername string
		wantCode     string
		wantErr      bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
					WillReturnRows(rows)
			},
			wantUsername: "testuser",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantErr:  true,
			wantCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 1,
			mockBehavior: func() {
				mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
					WillReturnError(errors.New("connection timeout"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, user)
				if tt.wantCode != "" {
					assert.True(t, models.IsCode(err, tt.wantCode))
				}
			} else if assert.NoError(t, err) {
				assert.Equal(t, tt.wantUsername, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_LookupsReturnNilWhenMissing(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	createUser(t, db, "alice")

	user, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	user, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)

	user, err = repo.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_CreateDuplicateIsConflict(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com", Password: "h"}))

	tests := []struct {
		name string
		user *models.User
	}{
		{"same email", &models.User{Username: "alice2", Email: "alice@example.com", Password: "h"}},
		{"same username", &models.User{Username: "alice", Email: "other@example.com", Password: "h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeConflict))
		})
	}
}

func TestUserRepository_Suggested(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	viewer := createUser(t, db, "viewer")
	var others []*models.User
	for i, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"} {
		u := createUser(t, db, name)
		require.NoError(t, db.Model(u).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
		others = append(others, u)
	}
	// viewer follows the two newest accounts
	follow(t, db, viewer.ID, others[6].ID)
	follow(t, db, viewer.ID, others[5].ID)

	users, err := repo.Suggested(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, users, 5)

	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	assert.Equal(t, []string{"u5", "u4", "u3", "u2", "u1"}, names)

	users, err = repo.Suggested(ctx, viewer.ID, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_List(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
}
