package user_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/mission-management/internal/user"
)

var _ = Describe("Role", func() {
	Describe("CanAssignTo", func() {
		It("lets the CEO assign to every role", func() {
			Expect(user.RoleCEO.CanAssignTo(user.RoleCEO)).To(BeTrue())
			Expect(user.RoleCEO.CanAssignTo(user.RoleManager)).To(BeTrue())
			Expect(user.RoleCEO.CanAssignTo(user.RoleEmployee)).To(BeTrue())
		})

		It("restricts managers to employees", func() {
			Expect(user.RoleManager.CanAssignTo(user.RoleEmployee)).To(BeTrue())
			Expect(user.RoleManager.CanAssignTo(user.RoleManager)).To(BeFalse())
			Expect(user.RoleManager.CanAssignTo(user.RoleCEO)).To(BeFalse())
		})

		It("restricts employees to employees", func() {
			Expect(user.RoleEmployee.CanAssignTo(user.RoleEmployee)).To(BeTrue())
			Expect(user.RoleEmployee.CanAssignTo(user.RoleManager)).To(BeFalse())
			Expect(user.RoleEmployee.CanAssignTo(user.RoleCEO)).To(BeFalse())
		})

		It("denies everything for an unknown role", func() {
			Expect(user.Role("INTERN").CanAssignTo(user.RoleEmployee)).To(BeFalse())
		})
	})

	Describe("Valid", func() {
		It("accepts only the three known roles", func() {
			Expect(user.RoleCEO.Valid()).To(BeTrue())
			Expect(user.RoleManager.Valid()).To(BeTrue())
			Expect(user.RoleEmployee.Valid()).To(BeTrue())
			Expect(user.Role("").Valid()).To(BeFalse())
			Expect(user.Role("ceo").Valid()).To(BeFalse())
		})
	})
})
