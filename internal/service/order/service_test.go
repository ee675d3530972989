package order_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/internal/messaging/mock_messaging"
	repo "github.com/greencrop/storefront/internal/repository/order"
	"github.com/greencrop/storefront/internal/service/order"
	"github.com/greencrop/storefront/internal/service/order/mock_order"
	"github.com/greencrop/storefront/pkg/errorbank"
)

func ownerID(id int64) *int64 { return &id }

func validationFields(err error) []string {
	var appErr *errorbank.AppError
	Expect(errors.As(err, &appErr)).To(BeTrue())
	return appErr.Fields()
}

var _ = Describe("Order pipeline", func() {
	var (
		ctrl      *gomock.Controller
		conns     *mock_order.MockConnProvider
		orders    *mock_order.MockOrderStore
		accruer   *mock_order.MockPointsAccruer
		invoices  *mock_order.MockInvoiceRenderer
		publisher *mock_messaging.MockClient
		srv       *order.Service
		conn      bun.IDB
		ctx       context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		conns = mock_order.NewMockConnProvider(ctrl)
		orders = mock_order.NewMockOrderStore(ctrl)
		accruer = mock_order.NewMockPointsAccruer(ctrl)
		invoices = mock_order.NewMockInvoiceRenderer(ctrl)
		publisher = mock_messaging.NewMockClient(ctrl)
		srv = order.New(conns, orders, accruer, invoices, publisher, nil)
		conn = &bun.DB{}
		ctx = context.Background()
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	Context("quick checkout by an authenticated owner", func() {
		It("persists the order, awards points and acknowledges them", func() {
			var stored *entity.Order
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Create(gomock.Any(), conn, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ bun.IDB, o *entity.Order) (int64, error) {
					stored = o
					return 42, nil
				})
			accruer.EXPECT().Award(gomock.Any(), conn, int64(7), "55").Return(int64(5))
			publisher.EXPECT().Publish(gomock.Any(), []byte("order-42"), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ []byte, value []byte) error {
					var event order.OrderCreatedEvent
					Expect(json.Unmarshal(value, &event)).To(Succeed())
					Expect(event.ID).To(Equal(int64(42)))
					Expect(event.Points).To(Equal(int64(5)))
					Expect(event.Total).To(Equal("55.00"))
					Expect(event.EventID).NotTo(BeEmpty())
					return nil
				})
			conns.EXPECT().Release(conn)

			receipt, err := srv.Checkout(ctx, order.CheckoutRequest{
				OwnerID:     ownerID(7),
				Total:       "55",
				Payload:     `{"telefono":"999","nombre":"Ana","items":[{"nombre":"Urea","cantidad":1,"precio":55}],"metodo_pago":"Yape"}`,
				PayloadKind: order.PayloadJSON,
			})

			Expect(err).ShouldNot(HaveOccurred())
			Expect(receipt.OrderID).To(Equal(int64(42)))
			Expect(receipt.Points).To(Equal(int64(5)))
			Expect(receipt.Message).To(Equal("¡Pedido #42 realizado con éxito! Ganaste 5 puntos."))

			Expect(*stored.OwnerID).To(Equal(int64(7)))
			Expect(stored.CustomerName).To(Equal("Ana"))
			Expect(stored.CustomerPhone).To(Equal("999"))
			Expect(stored.PaymentMethod).To(Equal("Yape"))
			Expect(stored.CustomerEmail).To(BeEmpty())
			Expect(stored.Status).To(Equal(entity.OrderStatusPending))
			Expect(stored.Total.Equal(decimal.NewFromInt(55))).To(BeTrue())
			Expect(stored.CreatedAt.IsZero()).To(BeFalse())
			Expect(stored.Payload).To(Equal(`{"items":[{"cantidad":1,"nombre":"Urea","precio":55}],"metodo_pago":"Yape","nombre":"Ana","telefono":"999"}`))
		})

		It("acknowledges the order even when accrual yields nothing", func() {
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Create(gomock.Any(), conn, gomock.Any()).Return(int64(8), nil)
			accruer.EXPECT().Award(gomock.Any(), conn, int64(7), "120").Return(int64(0))
			publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			conns.EXPECT().Release(conn)

			receipt, err := srv.Checkout(ctx, order.CheckoutRequest{
				OwnerID: ownerID(7),
				Total:   "120",
				Payload: `{"items":[]}`,
			})

			Expect(err).ShouldNot(HaveOccurred())
			Expect(receipt.Message).To(Equal("¡Pedido #8 realizado con éxito! Ganaste 0 puntos."))
		})

		It("rejects a payload that is not a JSON object", func() {
			_, err := srv.Checkout(ctx, order.CheckoutRequest{
				OwnerID: ownerID(7),
				Total:   "-3",
				Payload: `{"items": [`,
			})

			Expect(errorbank.Is(err, errorbank.KindUnprocessableEntity)).To(BeTrue())
			Expect(validationFields(err)).To(Equal([]string{order.FieldCart, order.FieldTotal}))
		})
	})

	Context("checkout form", func() {
		form := func(owner *int64) order.CheckoutRequest {
			return order.CheckoutRequest{
				OwnerID: owner,
				Snapshot: order.Snapshot{
					Name:          "Luis",
					Email:         "luis@example.com",
					Phone:         "987654321",
					Address:       "Av. Arequipa 123",
					PaymentMethod: "tarjeta",
				},
				Total:       "100",
				Payload:     `{"items":[{"nombre":"Urea","cantidad":2,"precio":50}]}  `,
				PayloadKind: order.PayloadOpaque,
			}
		}

		It("stores a guest order verbatim without awarding points", func() {
			var stored *entity.Order
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Create(gomock.Any(), conn, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ bun.IDB, o *entity.Order) (int64, error) {
					stored = o
					return 3, nil
				})
			publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			conns.EXPECT().Release(conn)

			receipt, err := srv.Checkout(ctx, form(nil))

			Expect(err).ShouldNot(HaveOccurred())
			Expect(receipt.Points).To(BeZero())
			Expect(receipt.Message).To(Equal("¡Pedido #3 realizado con éxito! Te contactaremos pronto."))
			Expect(stored.OwnerID).To(BeNil())
			Expect(stored.CustomerAddress).To(Equal("Av. Arequipa 123"))
			Expect(stored.Payload).To(Equal(`{"items":[{"nombre":"Urea","cantidad":2,"precio":50}]}  `))
		})

		It("credits points when the submitter is signed in", func() {
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Create(gomock.Any(), conn, gomock.Any()).Return(int64(4), nil)
			accruer.EXPECT().Award(gomock.Any(), conn, int64(9), "100").Return(int64(10))
			publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			conns.EXPECT().Release(conn)

			receipt, err := srv.Checkout(ctx, form(ownerID(9)))

			Expect(err).ShouldNot(HaveOccurred())
			Expect(receipt.Message).To(Equal("¡Pedido #4 realizado con éxito! Ganaste 10 puntos."))
		})

		It("lists every missing field before touching the store", func() {
			req := form(nil)
			req.Snapshot.Phone = ""
			req.Snapshot.PaymentMethod = "  "
			req.Payload = ""
			req.Total = "abc"

			_, err := srv.Checkout(ctx, req)

			Expect(err).Should(HaveOccurred())
			Expect(validationFields(err)).To(Equal([]string{
				order.FieldPhone, order.FieldPaymentMethod, order.FieldCart, order.FieldTotal,
			}))
		})

		It("reports the store as unavailable without writing", func() {
			conns.EXPECT().Acquire(gomock.Any()).Return(nil, database.ErrUnavailable)

			_, err := srv.Checkout(ctx, form(nil))

			Expect(errorbank.Is(err, errorbank.KindUnavailable)).To(BeTrue())
			Expect(errors.Is(err, database.ErrUnavailable)).To(BeTrue())
		})

		It("rejects the request when the insert fails and releases the connection", func() {
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Create(gomock.Any(), conn, gomock.Any()).Return(int64(0), errors.New("duplicate key"))
			conns.EXPECT().Release(conn)

			_, err := srv.Checkout(ctx, form(ownerID(9)))

			Expect(errorbank.Is(err, errorbank.KindInternal)).To(BeTrue())
		})
	})

	Context("invoice", func() {
		It("renders orders owned by the requester", func() {
			stored := &entity.Order{ID: 5, Payload: "{}"}
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Get(gomock.Any(), conn, int64(5), int64(7)).Return(stored, nil)
			invoices.EXPECT().Render(stored, "ana@example.com").Return([]byte("%PDF-1.3"), nil)
			conns.EXPECT().Release(conn)

			doc, err := srv.Invoice(ctx, 5, 7, "ana@example.com")

			Expect(err).ShouldNot(HaveOccurred())
			Expect(doc).To(Equal([]byte("%PDF-1.3")))
		})

		It("treats foreign and guest orders as not found", func() {
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Get(gomock.Any(), conn, int64(5), int64(8)).Return(nil, repo.ErrNotFound)
			conns.EXPECT().Release(conn)

			_, err := srv.Invoice(ctx, 5, 8, "eve@example.com")

			Expect(errorbank.Is(err, errorbank.KindNotFound)).To(BeTrue())
		})

		It("surfaces render failures as internal errors", func() {
			stored := &entity.Order{ID: 5}
			conns.EXPECT().Acquire(gomock.Any()).Return(conn, nil)
			orders.EXPECT().Get(gomock.Any(), conn, int64(5), int64(7)).Return(stored, nil)
			invoices.EXPECT().Render(stored, "ana@example.com").Return(nil, errors.New("font missing"))
			conns.EXPECT().Release(conn)

			_, err := srv.Invoice(ctx, 5, 7, "ana@example.com")

			Expect(errorbank.Is(err, errorbank.KindInternal)).To(BeTrue())
		})
	})
})
