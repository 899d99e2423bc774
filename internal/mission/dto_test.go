package mission_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/mission-management/internal/mission"
	"github.com/frahmantamala/mission-management/internal/user"
)

func summaryWithID(id int64) user.Summary {
	return user.Summary{ID: id, Role: user.RoleEmployee}
}

var _ = Describe("Mission DTOs", func() {
	Describe("UserIDList", func() {
		unmarshal := func(raw string) (mission.UserIDList, error) {
			var l mission.UserIDList
			err := json.Unmarshal([]byte(raw), &l)
			return l, err
		}

		It("accepts a JSON array of numbers", func() {
			l, err := unmarshal(`[1, 2, 3]`)
			Expect(err).ToNot(HaveOccurred())
			Expect([]int64(l)).To(Equal([]int64{1, 2, 3}))
		})

		It("accepts a single number", func() {
			l, err := unmarshal(`7`)
			Expect(err).ToNot(HaveOccurred())
			Expect([]int64(l)).To(Equal([]int64{7}))
		})

		It("accepts a numeric string", func() {
			l, err := unmarshal(`"42"`)
			Expect(err).ToNot(HaveOccurred())
			Expect([]int64(l)).To(Equal([]int64{42}))
		})

		It("accepts an array of numeric strings", func() {
			l, err := unmarshal(`["1", "2"]`)
			Expect(err).ToNot(HaveOccurred())
			Expect([]int64(l)).To(Equal([]int64{1, 2}))
		})

		It("treats null as an empty set", func() {
			l, err := unmarshal(`null`)
			Expect(err).ToNot(HaveOccurred())
			Expect(l).To(BeEmpty())
		})

		It("rejects a non-numeric string", func() {
			_, err := unmarshal(`"alice"`)
			Expect(err).To(HaveOccurred())
		})

		It("rejects nested objects", func() {
			_, err := unmarshal(`{"id": 1}`)
			Expect(err).To(HaveOccurred())
		})

		It("deduplicates while preserving order", func() {
			l := mission.UserIDList{3, 1, 3, 2, 1}
			Expect(l.Deduplicate()).To(Equal([]int64{3, 1, 2}))
		})
	})

	Describe("DateOnly", func() {
		It("parses a bare calendar date", func() {
			var d mission.DateOnly
			err := json.Unmarshal([]byte(`"2026-09-01"`), &d)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Format("2006-01-02")).To(Equal("2026-09-01"))
		})

		It("rejects other formats", func() {
			var d mission.DateOnly
			err := json.Unmarshal([]byte(`"01/09/2026"`), &d)
			Expect(err).To(HaveOccurred())
		})

		It("marshals back as a bare date", func() {
			var d mission.DateOnly
			Expect(json.Unmarshal([]byte(`"2026-09-01"`), &d)).To(Succeed())
			out, err := json.Marshal(d)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal(`"2026-09-01"`))
		})
	})

	Describe("ToResponse", func() {
		It("computes can_edit and can_complete for the requester", func() {
			creatorID := int64(1)
			m := &mission.Mission{
				ID:          10,
				CreatedByID: &creatorID,
			}
			m.DueTo = append(m.DueTo, summaryWithID(2))

			asCreator := m.ToResponse(1)
			Expect(asCreator.CanEdit).To(BeTrue())
			Expect(asCreator.CanComplete).To(BeFalse())

			asAssignee := m.ToResponse(2)
			Expect(asAssignee.CanEdit).To(BeFalse())
			Expect(asAssignee.CanComplete).To(BeTrue())

			asOutsider := m.ToResponse(3)
			Expect(asOutsider.CanEdit).To(BeFalse())
			Expect(asOutsider.CanComplete).To(BeFalse())
		})

		It("renders empty arrays instead of null for assignees and attachments", func() {
			m := &mission.Mission{ID: 10}
			out, err := json.Marshal(m.ToResponse(1))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(ContainSubstring(`"assignees":[]`))
			Expect(string(out)).To(ContainSubstring(`"attachments":[]`))
		})
	})
})
