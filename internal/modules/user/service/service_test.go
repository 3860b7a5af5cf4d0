package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/middleware"
	"anoa.com/skorprestasi/internal/modules/user/dto"
	"anoa.com/skorprestasi/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fakeUserRepo serves a single seeded user; every other lookup misses.
type fakeUserRepo struct {
	user *entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if f.user != nil && f.user.ID.String() == id {
		return f.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByIdentity(ctx context.Context, identity string) (*entity.User, error) {
	if f.user != nil && (f.user.Username == identity || f.user.Email == identity) {
		return f.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAll(ctx context.Context, search, role string, offset, limit int) ([]*entity.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) SaveStudentProfile(ctx context.Context, profile *entity.StudentProfile) error {
	return nil
}

func (f *fakeUserRepo) SaveLecturerProfile(ctx context.Context, profile *entity.LecturerProfile) error {
	return nil
}

func (f *fakeUserRepo) FindStudentProfile(ctx context.Context, userID uuid.UUID) (*entity.StudentProfile, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindLecturerProfile(ctx context.Context, userID uuid.UUID) (*entity.LecturerProfile, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAdvisees(ctx context.Context, advisorID uuid.UUID) ([]*entity.User, error) {
	return nil, nil
}

func seedUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &entity.User{
		ID:           uuid.New(),
		Username:     "budi",
		Email:        "budi@kampus.ac.id",
		PasswordHash: string(hash),
		FullName:     "Budi Santoso",
		Role:         &entity.Role{Name: entity.RoleStudent},
		IsActive:     true,
	}
}

func newTestAuthService(t *testing.T, user *entity.User) AuthService {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	return NewAuthService(&fakeUserRepo{user: user}, nil, 15*time.Minute, 7*24*time.Hour)
}

func TestLogin(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	resp, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi", Password: "rahasia123"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", resp.TokenType)
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expires_in = %d", resp.ExpiresIn)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("response missing the authenticated user")
	}

	claims := &middleware.Claims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Role != entity.RoleStudent {
		t.Errorf("role claim = %q, want %q", claims.Role, entity.RoleStudent)
	}
}

func TestLoginByEmail(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	if _, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi@kampus.ac.id", Password: "rahasia123"}); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	if _, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi", Password: "salah"}); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := svc.Login(context.Background(), dto.LoginInput{Identity: "tidak-ada", Password: "rahasia123"}); err == nil {
		t.Error("expected error for unknown identity")
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := seedUser(t, "rahasia123")
	user.IsActive = false
	svc := newTestAuthService(t, user)

	_, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi", Password: "rahasia123"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	login, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi", Password: "rahasia123"})
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("refresh returned an empty token pair")
	}
	// Each refresh token carries a fresh jti, so rotation always yields a
	// distinct token.
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh token was not rotated")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t, seedUser(t, "rahasia123"))

	if _, err := svc.Refresh(context.Background(), "not.a.token"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	login, err := svc.Login(context.Background(), dto.LoginInput{Identity: "budi", Password: "rahasia123"})
	if err != nil {
		t.Fatal(err)
	}

	user.IsActive = false
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestLogoutToleratesExpiredToken(t *testing.T) {
	svc := newTestAuthService(t, seedUser(t, "rahasia123"))
	if err := svc.Logout(context.Background(), "expired.or.garbage"); err != nil {
		t.Errorf("logout should swallow unparseable tokens, got %v", err)
	}
}

func TestMe(t *testing.T) {
	user := seedUser(t, "rahasia123")
	svc := newTestAuthService(t, user)

	got, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "budi" {
		t.Errorf("username = %q", got.Username)
	}

	if _, err := svc.Me(context.Background(), uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
