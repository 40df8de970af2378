package frame

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Synchronizer", func() {
	var (
		mockCtrl *gomock.Controller
		s        *Synchronizer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		s = NewSynchronizer()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should apply additions at the next synchronization", func() {
		obj := NewMockSynchronizable(mockCtrl)

		s.Add(obj)
		Expect(s.Contains(obj)).To(BeFalse())

		obj.EXPECT().Synchronize().Return(nil)
		Expect(s.SynchronizeAll()).To(Succeed())
		Expect(s.Contains(obj)).To(BeTrue())
		Expect(s.Count()).To(Equal(1))
	})

	It("should synchronize in registration order", func() {
		obj1 := NewMockSynchronizable(mockCtrl)
		obj2 := NewMockSynchronizable(mockCtrl)
		s.Add(obj1)
		s.Add(obj2)

		gomock.InOrder(
			obj1.EXPECT().Synchronize().Return(nil),
			obj2.EXPECT().Synchronize().Return(nil),
		)

		Expect(s.SynchronizeAll()).To(Succeed())
		Expect(s.Objects()).To(HaveLen(2))
	})

	It("should stop synchronizing removed objects", func() {
		obj1 := NewMockSynchronizable(mockCtrl)
		obj2 := NewMockSynchronizable(mockCtrl)
		s.Add(obj1)
		s.Add(obj2)

		obj1.EXPECT().Synchronize().Return(nil).Times(1)
		obj2.EXPECT().Synchronize().Return(nil).Times(2)
		Expect(s.SynchronizeAll()).To(Succeed())

		s.Remove(obj1)
		Expect(s.SynchronizeAll()).To(Succeed())
		Expect(s.Contains(obj1)).To(BeFalse())
	})

	It("should accept removal from inside a synchronization", func() {
		obj1 := NewMockSynchronizable(mockCtrl)
		obj2 := NewMockSynchronizable(mockCtrl)
		s.Add(obj1)
		s.Add(obj2)

		obj1.EXPECT().Synchronize().DoAndReturn(func() error {
			s.Remove(obj2)
			return nil
		}).Times(2)
		obj2.EXPECT().Synchronize().Return(nil).Times(1)

		Expect(s.SynchronizeAll()).To(Succeed())
		Expect(s.SynchronizeAll()).To(Succeed())
		Expect(s.Count()).To(Equal(1))
	})

	It("should join the errors and keep going", func() {
		errA := errors.New("a")
		errB := errors.New("b")
		obj1 := NewMockSynchronizable(mockCtrl)
		obj2 := NewMockSynchronizable(mockCtrl)
		obj3 := NewMockSynchronizable(mockCtrl)
		s.Add(obj1)
		s.Add(obj2)
		s.Add(obj3)

		obj1.EXPECT().Synchronize().Return(errA)
		obj2.EXPECT().Synchronize().Return(nil)
		obj3.EXPECT().Synchronize().Return(errB)

		err := s.SynchronizeAll()

		Expect(errors.Is(err, errA)).To(BeTrue())
		Expect(errors.Is(err, errB)).To(BeTrue())
	})
})
