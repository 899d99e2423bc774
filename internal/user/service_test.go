package user_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/mission-management/internal"
	"github.com/frahmantamala/mission-management/internal/storage"
	"github.com/frahmantamala/mission-management/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	users       map[int64]*user.User
	createError error
	getError    error
	updateError error
	nextID      int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  make(map[int64]*user.User),
		nextID: 1,
	}
}

func (m *mockUserRepository) addUser(username, email string, role user.Role, active bool) *user.User {
	u := &user.User{
		ID:       m.nextID,
		Username: username,
		Email:    email,
		Role:     role,
		IsActive: active,
	}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *mockUserRepository) Create(u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	u.ID = m.nextID
	m.nextID++
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockUserRepository) GetByID(id int64) (*user.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	u, exists := m.users[id]
	if !exists {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByIDs(ids []int64) ([]*user.User, error) {
	var result []*user.User
	for _, id := range ids {
		if u, exists := m.users[id]; exists {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUserRepository) GetByUsername(username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepository) UsernameExists(username string) (bool, error) {
	_, err := m.GetByUsername(username)
	return err == nil, nil
}

func (m *mockUserRepository) EmailExists(email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	if m.updateError != nil {
		return m.updateError
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *mockUserRepository) UpdatePassword(userID int64, passwordHash string) error {
	if u, exists := m.users[userID]; exists {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepository) ListActive() ([]*user.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var result []*user.User
	for _, u := range m.users {
		if u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUserRepository) ListAll() ([]*user.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var result []*user.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

type mockFileStore struct {
	saved     []string
	removed   []string
	saveError error
}

func (m *mockFileStore) Save(dir, fileName string, content io.Reader) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	path := dir + "/" + fileName
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *mockFileStore) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

var _ = Describe("UserService", func() {
	var (
		userService *user.Service
		mockRepo    *mockUserRepository
		mockFiles   *mockFileStore
		logger      *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		mockFiles = &mockFileStore{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		cfg := internal.RegistrationConfig{
			AllowedEmailDomain: "@gmail.com",
			MinPasswordLength:  8,
		}
		userService = user.NewService(mockRepo, mockFiles, cfg, bcrypt.MinCost, logger)
	})

	validRegistration := func() user.RegisterDTO {
		return user.RegisterDTO{
			Username:  "alice",
			Email:     "alice@gmail.com",
			Password:  "supersecret",
			FirstName: "Alice",
			LastName:  "Worker",
		}
	}

	Describe("Register", func() {
		Context("with a valid payload", func() {
			It("creates the account as an active employee", func() {
				result, err := userService.Register(validRegistration())

				Expect(err).ToNot(HaveOccurred())
				Expect(result.ID).To(BeNumerically(">", 0))
				Expect(result.Role).To(Equal(user.RoleEmployee))
				Expect(result.IsActive).To(BeTrue())
				Expect(result.IsStaff).To(BeFalse())
			})

			It("hashes the password", func() {
				result, err := userService.Register(validRegistration())

				Expect(err).ToNot(HaveOccurred())
				Expect(result.PasswordHash).ToNot(Equal("supersecret"))
				Expect(bcrypt.CompareHashAndPassword([]byte(result.PasswordHash), []byte("supersecret"))).To(Succeed())
			})

			It("normalizes the email to lower case", func() {
				dto := validRegistration()
				dto.Email = "Alice@Gmail.com"

				result, err := userService.Register(dto)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Email).To(Equal("alice@gmail.com"))
			})

			It("defaults notification preferences to enabled", func() {
				result, err := userService.Register(validRegistration())

				Expect(err).ToNot(HaveOccurred())
				Expect(result.EmailNotifications).To(BeTrue())
				Expect(result.TaskReminders).To(BeTrue())
				Expect(result.DeadlineAlerts).To(BeTrue())
			})
		})

		Context("when the email domain is not allowed", func() {
			It("rejects a yahoo address", func() {
				dto := validRegistration()
				dto.Email = "alice@yahoo.com"

				result, err := userService.Register(dto)

				Expect(result).To(BeNil())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.GetDetailedMessage()).To(ContainSubstring("@gmail.com"))
			})

			It("rejects a lookalike domain that merely contains the suffix text", func() {
				dto := validRegistration()
				dto.Email = "alice@gmail.com.evil.org"

				result, err := userService.Register(dto)

				Expect(result).To(BeNil())
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the password is too short", func() {
			It("rejects it before touching the repository", func() {
				dto := validRegistration()
				dto.Password = "short"

				result, err := userService.Register(dto)

				Expect(result).To(BeNil())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.GetDetailedMessage()).To(ContainSubstring("at least 8"))
				Expect(mockRepo.users).To(BeEmpty())
			})
		})

		Context("when the username or email is taken", func() {
			BeforeEach(func() {
				mockRepo.addUser("alice", "alice@gmail.com", user.RoleEmployee, true)
			})

			It("rejects a duplicate username with a conflict", func() {
				result, err := userService.Register(validRegistration())

				Expect(result).To(BeNil())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateUsername))
				Expect(appErr.StatusCode).To(Equal(409))
			})

			It("rejects a duplicate email with a conflict", func() {
				dto := validRegistration()
				dto.Username = "alice2"

				result, err := userService.Register(dto)

				Expect(result).To(BeNil())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateEmail))
			})
		})

		Context("when required fields are missing", func() {
			It("rejects an empty username", func() {
				dto := validRegistration()
				dto.Username = "  "

				_, err := userService.Register(dto)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("username"))
			})
		})
	})

	Describe("ChangePassword", func() {
		var existing *user.User

		BeforeEach(func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
			Expect(err).ToNot(HaveOccurred())
			existing = mockRepo.addUser("alice", "alice@gmail.com", user.RoleEmployee, true)
			existing.PasswordHash = string(hash)
		})

		It("changes the password when the old one matches", func() {
			err := userService.ChangePassword(existing.ID, user.ChangePasswordDTO{
				OldPassword: "oldpassword",
				NewPassword: "newpassword",
			})

			Expect(err).ToNot(HaveOccurred())
			updated, _ := mockRepo.GetByID(existing.ID)
			Expect(bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword"))).To(Succeed())
		})

		It("rejects a wrong old password", func() {
			err := userService.ChangePassword(existing.ID, user.ChangePasswordDTO{
				OldPassword: "wrong",
				NewPassword: "newpassword",
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("old password"))
		})

		It("rejects a new password below the minimum length", func() {
			err := userService.ChangePassword(existing.ID, user.ChangePasswordDTO{
				OldPassword: "oldpassword",
				NewPassword: "short",
			})

			Expect(err).To(HaveOccurred())
			updated, _ := mockRepo.GetByID(existing.ID)
			Expect(bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("oldpassword"))).To(Succeed())
		})
	})

	Describe("UpdateProfile", func() {
		var existing *user.User

		BeforeEach(func() {
			existing = mockRepo.addUser("alice", "alice@gmail.com", user.RoleEmployee, true)
		})

		It("applies only the provided fields", func() {
			first := "Alicia"
			result, err := userService.UpdateProfile(existing.ID, user.UpdateProfileDTO{FirstName: &first}, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.FirstName).To(Equal("Alicia"))
			Expect(result.Username).To(Equal("alice"))
		})

		It("stores a new profile photo and removes the old one", func() {
			existing.ProfilePhoto = "profile_photos/old.png"
			photo := &storage.Upload{FileName: "new.png"}

			result, err := userService.UpdateProfile(existing.ID, user.UpdateProfileDTO{}, photo)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ProfilePhoto).To(Equal("profile_photos/new.png"))
			Expect(mockFiles.removed).To(ContainElement("profile_photos/old.png"))
		})

		It("fails with not found for an unknown user", func() {
			_, err := userService.UpdateProfile(999, user.UpdateProfileDTO{}, nil)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUserNotFound))
		})

		It("surfaces storage failures", func() {
			mockFiles.saveError = errors.New("disk full")
			photo := &storage.Upload{FileName: "new.png"}

			_, err := userService.UpdateProfile(existing.ID, user.UpdateProfileDTO{}, photo)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AssignableUsers", func() {
		BeforeEach(func() {
			mockRepo.addUser("boss", "boss@gmail.com", user.RoleCEO, true)
			mockRepo.addUser("manager", "manager@gmail.com", user.RoleManager, true)
			mockRepo.addUser("alice", "alice@gmail.com", user.RoleEmployee, true)
			mockRepo.addUser("ghost", "ghost@gmail.com", user.RoleEmployee, false)
		})

		roles := func(users []*user.User) []user.Role {
			var result []user.Role
			for _, u := range users {
				result = append(result, u.Role)
			}
			return result
		}

		It("gives a CEO every active user", func() {
			users, err := userService.AssignableUsers(user.RoleCEO)

			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(3))
			Expect(roles(users)).To(ContainElements(user.RoleCEO, user.RoleManager, user.RoleEmployee))
		})

		It("gives a manager only employees", func() {
			users, err := userService.AssignableUsers(user.RoleManager)

			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Role).To(Equal(user.RoleEmployee))
		})

		It("gives an employee only employees", func() {
			users, err := userService.AssignableUsers(user.RoleEmployee)

			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Role).To(Equal(user.RoleEmployee))
		})

		It("never includes inactive users", func() {
			users, err := userService.AssignableUsers(user.RoleCEO)

			Expect(err).ToNot(HaveOccurred())
			for _, u := range users {
				Expect(u.IsActive).To(BeTrue())
			}
		})
	})

	Describe("OrganizationChart", func() {
		It("groups every user under their role", func() {
			mockRepo.addUser("boss", "boss@gmail.com", user.RoleCEO, true)
			mockRepo.addUser("manager", "manager@gmail.com", user.RoleManager, true)
			mockRepo.addUser("alice", "alice@gmail.com", user.RoleEmployee, true)
			mockRepo.addUser("bob", "bob@gmail.com", user.RoleEmployee, false)

			chart, err := userService.OrganizationChart()

			Expect(err).ToNot(HaveOccurred())
			Expect(chart.CEO).To(HaveLen(1))
			Expect(chart.Manager).To(HaveLen(1))
			Expect(chart.Employee).To(HaveLen(2))
		})

		It("returns empty groups for an empty directory", func() {
			chart, err := userService.OrganizationChart()

			Expect(err).ToNot(HaveOccurred())
			Expect(chart.CEO).To(BeEmpty())
			Expect(chart.Manager).To(BeEmpty())
			Expect(chart.Employee).To(BeEmpty())
		})
	})
})
