package mission_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/mission-management/internal/auth"
	missionDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/mission"
	userDatamodel "github.com/frahmantamala/mission-management/internal/core/datamodel/user"
	"github.com/frahmantamala/mission-management/internal/mission"
	missionPostgres "github.com/frahmantamala/mission-management/internal/mission/postgres"
	"github.com/frahmantamala/mission-management/internal/user"
	userPostgres "github.com/frahmantamala/mission-management/internal/user/postgres"
)

var _ = Describe("Mission Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *mission.Handler
		router  *chi.Mux
		slogger *slog.Logger
		files   *mockFileStore
		bus     *mockEventPublisher
	)

	seedUser := func(id int64, username string, role user.Role, staff bool) {
		u := &userDatamodel.User{
			ID:           id,
			Username:     username,
			Email:        username + "@gmail.com",
			PasswordHash: "x",
			Role:         string(role),
			IsActive:     true,
			IsStaff:      staff,
		}
		Expect(db.Create(u).Error).NotTo(HaveOccurred())
	}

	// asUser simulates the auth middleware placing the principal in context
	asUser := func(req *http.Request, id int64, username string, role user.Role, staff bool) *http.Request {
		principal := &auth.User{ID: id, Username: username, Role: string(role), IsStaff: staff, IsActive: true}
		return req.WithContext(auth.ContextWithUser(req.Context(), principal))
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&userDatamodel.User{}, &missionDatamodel.Mission{}, &missionDatamodel.Attachment{})
		Expect(err).NotTo(HaveOccurred())

		files = &mockFileStore{}
		bus = &mockEventPublisher{}

		missionRepo := missionPostgres.NewRepository(db)
		userRepo := userPostgres.NewRepository(db)
		service := mission.NewService(missionRepo, userRepo, files, bus, slogger)
		handler = mission.NewHandler(slogger, service, 10<<20)

		router = chi.NewRouter()
		handler.RegisterRoutes(router)

		seedUser(1, "boss", user.RoleCEO, true)
		seedUser(2, "manager", user.RoleManager, false)
		seedUser(3, "alice", user.RoleEmployee, false)
		seedUser(4, "manager2", user.RoleManager, false)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).NotTo(HaveOccurred())
	})

	createMission := func(actorID int64, actorRole user.Role, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/missions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = asUser(req, actorID, "actor", actorRole, false)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("POST /missions", func() {
		It("creates a mission and returns the requester view", func() {
			w := createMission(2, user.RoleManager,
				`{"description":"survey","assigned_date":"2026-09-01","end_date":"2026-09-15","due_to":[3]}`)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Assignees).To(HaveLen(1))
			Expect(resp.Assignees[0].Username).To(Equal("alice"))
			Expect(resp.CanEdit).To(BeTrue())
			Expect(resp.CanComplete).To(BeFalse())
			Expect(resp.AssignedDate).To(Equal("2026-09-01"))
		})

		It("accepts a scalar due_to value", func() {
			w := createMission(2, user.RoleManager,
				`{"assigned_date":"2026-09-01","end_date":"2026-09-15","due_to":3}`)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Assignees).To(HaveLen(1))
		})

		It("returns 403 with the offending usernames on a matrix violation", func() {
			w := createMission(2, user.RoleManager,
				`{"assigned_date":"2026-09-01","end_date":"2026-09-15","due_to":[3,4]}`)

			Expect(w.Code).To(Equal(http.StatusForbidden))

			var resp struct {
				Error struct {
					Message string `json:"message"`
					Details struct {
						InvalidAssignees []string `json:"invalid_assignees"`
					} `json:"details"`
				} `json:"error"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Error.Message).To(ContainSubstring("cannot assign mission to: manager2"))
			Expect(resp.Error.Details.InvalidAssignees).To(Equal([]string{"manager2"}))
		})

		It("returns 400 on a malformed date", func() {
			w := createMission(2, user.RoleManager,
				`{"assigned_date":"01/09/2026","end_date":"2026-09-15","due_to":[3]}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 without a principal", func() {
			req := httptest.NewRequest(http.MethodPost, "/missions", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /missions/{id}/toggle_complete", func() {
		var missionID int64

		BeforeEach(func() {
			w := createMission(2, user.RoleManager,
				`{"assigned_date":"2026-09-01","end_date":"2026-09-15","due_to":[3]}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			missionID = resp.ID
		})

		toggle := func(actorID int64, actorRole user.Role) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/missions/%d/toggle_complete", missionID), nil)
			req = asUser(req, actorID, "actor", actorRole, false)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("lets an assignee flip completion back and forth", func() {
			w := toggle(3, user.RoleEmployee)
			Expect(w.Code).To(Equal(http.StatusOK))
			var resp mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Completed).To(BeTrue())

			w = toggle(3, user.RoleEmployee)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Completed).To(BeFalse())
		})

		It("denies the creator", func() {
			w := toggle(2, user.RoleManager)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("returns 404 for an unknown mission", func() {
			req := httptest.NewRequest(http.MethodPost, "/missions/9999/toggle_complete", nil)
			req = asUser(req, 3, "alice", user.RoleEmployee, false)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /missions", func() {
		BeforeEach(func() {
			w := createMission(2, user.RoleManager,
				`{"assigned_date":"2026-09-01","end_date":"2026-09-15","due_to":[3]}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("lists only the requester's missions", func() {
			req := httptest.NewRequest(http.MethodGet, "/missions", nil)
			req = asUser(req, 3, "alice", user.RoleEmployee, false)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(1))
		})

		It("hides other users' missions", func() {
			req := httptest.NewRequest(http.MethodGet, "/missions", nil)
			req = asUser(req, 1, "boss", user.RoleCEO, false)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(BeEmpty())
		})

		It("rejects ?all=true for non-staff", func() {
			req := httptest.NewRequest(http.MethodGet, "/missions?all=true", nil)
			req = asUser(req, 2, "manager", user.RoleManager, false)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("serves ?all=true for staff", func() {
			req := httptest.NewRequest(http.MethodGet, "/missions?all=true", nil)
			req = asUser(req, 1, "boss", user.RoleCEO, true)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []mission.MissionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp).To(HaveLen(1))
		})
	})
})
