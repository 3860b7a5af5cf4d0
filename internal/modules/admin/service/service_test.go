package service

import (
	"context"
	"errors"
	"testing"

	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/modules/admin/dto"
	"anoa.com/skorprestasi/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeUserRepo is an in-memory user store with the three seeded roles.
type fakeUserRepo struct {
	users           map[uuid.UUID]*entity.User
	roles           map[string]*entity.Role
	studentProfiles map[uuid.UUID]*entity.StudentProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[uuid.UUID]*entity.User),
		roles: map[string]*entity.Role{
			entity.RoleAdmin:   {ID: 1, Name: entity.RoleAdmin},
			entity.RoleStudent: {ID: 2, Name: entity.RoleStudent},
			entity.RoleAdvisor: {ID: 3, Name: entity.RoleAdvisor},
		},
		studentProfiles: make(map[uuid.UUID]*entity.StudentProfile),
	}
}

func (f *fakeUserRepo) seed(user *entity.User) *entity.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.seed(user)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	user, ok := f.users[parsed]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByIdentity(ctx context.Context, identity string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAll(ctx context.Context, search, role string, offset, limit int) ([]*entity.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) { return int64(len(f.users)), nil }

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (f *fakeUserRepo) SaveStudentProfile(ctx context.Context, profile *entity.StudentProfile) error {
	f.studentProfiles[profile.UserID] = profile
	return nil
}

func (f *fakeUserRepo) SaveLecturerProfile(ctx context.Context, profile *entity.LecturerProfile) error {
	return nil
}

func (f *fakeUserRepo) FindStudentProfile(ctx context.Context, userID uuid.UUID) (*entity.StudentProfile, error) {
	profile, ok := f.studentProfiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (f *fakeUserRepo) FindLecturerProfile(ctx context.Context, userID uuid.UUID) (*entity.LecturerProfile, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAdvisees(ctx context.Context, advisorID uuid.UUID) ([]*entity.User, error) {
	return nil, nil
}

func studentNumber(s string) *string { return &s }

func TestCreateUserAttachesRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)

	res, err := svc.CreateUser(context.Background(), dto.CreateUserInput{
		Username:      "budi",
		Email:         "budi@kampus.ac.id",
		Password:      "rahasia-sekali",
		Role:          entity.RoleStudent,
		FullName:      "Budi Santoso",
		StudentNumber: studentNumber("2110101001"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.RoleName != entity.RoleStudent {
		t.Errorf("role name = %q, want %q", res.RoleName, entity.RoleStudent)
	}
	if res.Role == nil || res.Role.Name != entity.RoleStudent {
		t.Error("created user must carry the resolved role")
	}
	if res.RoleID == nil {
		t.Error("role id must be set")
	}
	if res.StudentProfile == nil || res.StudentProfile.StudentNumber != "2110101001" {
		t.Error("student profile must be saved alongside the user")
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc := NewAdminService(newFakeUserRepo())

	_, err := svc.CreateUser(context.Background(), dto.CreateUserInput{
		Username: "budi",
		Email:    "budi@kampus.ac.id",
		Password: "rahasia-sekali",
		Role:     "rektor",
		FullName: "Budi Santoso",
	})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

// Advisor resolution must tolerate users whose role association was never
// loaded or was cleared, instead of dereferencing it.
func TestCreateUserRejectsAdvisorCandidates(t *testing.T) {
	repo := newFakeUserRepo()
	student := repo.seed(&entity.User{
		Username: "siti",
		Role:     repo.roles[entity.RoleStudent],
		IsActive: true,
	})
	roleless := repo.seed(&entity.User{
		Username: "tanpa-role",
		IsActive: true,
	})
	inactive := repo.seed(&entity.User{
		Username: "pensiun",
		Role:     repo.roles[entity.RoleAdvisor],
	})
	svc := NewAdminService(repo)

	for _, tt := range []struct {
		name      string
		advisorID string
	}{
		{"student as advisor", student.ID.String()},
		{"user without role", roleless.ID.String()},
		{"inactive advisor", inactive.ID.String()},
		{"malformed id", "not-a-uuid"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), dto.CreateUserInput{
				Username:  "budi-" + tt.name,
				Email:     tt.name + "@kampus.ac.id",
				Password:  "rahasia-sekali",
				Role:      entity.RoleStudent,
				FullName:  "Budi Santoso",
				AdvisorID: &tt.advisorID,
			})
			if err == nil {
				t.Fatal("expected advisor candidate to be rejected")
			}
		})
	}
}

func TestAssignAdvisor(t *testing.T) {
	repo := newFakeUserRepo()
	student := repo.seed(&entity.User{
		Username: "siti",
		Role:     repo.roles[entity.RoleStudent],
		IsActive: true,
	})
	repo.studentProfiles[student.ID] = &entity.StudentProfile{UserID: student.ID}
	advisor := repo.seed(&entity.User{
		Username: "pak-dosen",
		Role:     repo.roles[entity.RoleAdvisor],
		IsActive: true,
	})
	svc := NewAdminService(repo)

	if err := svc.AssignAdvisor(context.Background(), student.ID, advisor.ID); err != nil {
		t.Fatal(err)
	}

	profile := repo.studentProfiles[student.ID]
	if profile.AdvisorID == nil || *profile.AdvisorID != advisor.ID {
		t.Error("advisor was not recorded on the student profile")
	}
}
