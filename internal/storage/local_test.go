package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/mission-management/internal/storage"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalStore", func() {
	var (
		root  string
		store *storage.LocalStore
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "storage-test-*")
		Expect(err).NotTo(HaveOccurred())
		store, err = storage.NewLocalStore(root)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(root)).To(Succeed())
	})

	Describe("Save", func() {
		It("writes the content under the given directory", func() {
			path, err := store.Save("mission_files", "brief.pdf", strings.NewReader("payload"))

			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HavePrefix("mission_files/"))
			Expect(path).To(HaveSuffix("brief.pdf"))

			data, err := os.ReadFile(filepath.Join(root, path))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("payload"))
		})

		It("never collides on identical file names", func() {
			first, err := store.Save("mission_files", "brief.pdf", strings.NewReader("a"))
			Expect(err).NotTo(HaveOccurred())
			second, err := store.Save("mission_files", "brief.pdf", strings.NewReader("b"))
			Expect(err).NotTo(HaveOccurred())

			Expect(first).NotTo(Equal(second))
		})

		It("strips directory components from the client file name", func() {
			path, err := store.Save("mission_files", "../../etc/passwd", strings.NewReader("x"))

			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HavePrefix("mission_files/"))
			Expect(path).NotTo(ContainSubstring(".."))
		})
	})

	Describe("Remove", func() {
		It("deletes a stored file", func() {
			path, err := store.Save("profile_photos", "me.png", strings.NewReader("img"))
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Remove(path)).To(Succeed())

			_, err = os.Stat(filepath.Join(root, path))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("ignores already-missing files", func() {
			Expect(store.Remove("mission_files/gone.pdf")).To(Succeed())
		})

		It("refuses paths that escape the root", func() {
			Expect(store.Remove("../outside.txt")).To(HaveOccurred())
		})

		It("treats an empty path as a no-op", func() {
			Expect(store.Remove("")).To(Succeed())
		})
	})
})
