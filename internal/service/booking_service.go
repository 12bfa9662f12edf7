package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"event-booking-seeder/config"
	"event-booking-seeder/internal/cache"
	"event-booking-seeder/internal/fake"
	"event-booking-seeder/internal/model"
	"event-booking-seeder/internal/repository"
	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SkipReason 一次訂票嘗試沒有產生訂單的原因
type SkipReason string

const (
	SkipMissingEvent      SkipReason = "missing_event"
	SkipSoldOut           SkipReason = "sold_out"
	SkipNoTicketTypes     SkipReason = "no_ticket_types"
	SkipMissingTicketType SkipReason = "missing_ticket_type"
	SkipInsufficient      SkipReason = "insufficient"
	// 快照時庫存足夠，但條件扣減時已被其他嘗試買走
	SkipContended SkipReason = "contended"
)

const bookingCreatedWithin = 30 * 24 * time.Hour

type BookingReport struct {
	Attempts int                `json:"attempts"`
	Created  int                `json:"created"`
	Released int                `json:"released"`
	Skipped  map[SkipReason]int `json:"skipped"`
}

func (r *BookingReport) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// InventoryAudit 訂票結束後的庫存對帳結果
type InventoryAudit struct {
	Events     int      `json:"events"`
	Mismatches []string `json:"mismatches,omitempty"`
}

type BookingOptions struct {
	Workers int
	// ReleaseCancelled 為 true 時，cancelled 訂單建立後立刻歸還庫存
	ReleaseCancelled bool
}

type BookingService interface {
	// Generate 嘗試 n 次訂票，每次最多產生一筆；庫存不足就略過
	Generate(ctx context.Context, n int, userIDs, eventIDs []primitive.ObjectID) ([]*model.Booking, *BookingReport, error)
	// OpenForSale 把已發佈活動目前的剩餘庫存預熱到 Redis 閘門
	OpenForSale(ctx context.Context, eventIDs []primitive.ObjectID) error
	// AuditInventory 檢查 available_seats == capacity − 已售總數；有閘門時也比對閘門的剩餘量、座位與價格
	AuditInventory(ctx context.Context, eventIDs []primitive.ObjectID) (*InventoryAudit, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error)
}

type BookingServiceImpl struct {
	eventRepo        repository.EventRepository
	bookingRepo      repository.BookingRepository
	inventoryManager cache.RedisTicketInventoryManager // nil 表示只靠 store 的條件更新
	faker            fake.Provider
	profile          config.Profile
	opts             BookingOptions
	log              *zap.Logger
}

func NewBookingService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	inventoryManager cache.RedisTicketInventoryManager,
	faker fake.Provider,
	profile config.Profile,
	opts BookingOptions,
) BookingService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &BookingServiceImpl{
		eventRepo:        eventRepo,
		bookingRepo:      bookingRepo,
		inventoryManager: inventoryManager,
		faker:            faker,
		profile:          profile,
		opts:             opts,
		log:              logger.WithComponent("booking"),
	}
}

// attemptPlan 一次嘗試所有隨機抽樣的結果；先依序抽好，並行執行時結果仍由種子決定
type attemptPlan struct {
	userID     primitive.ObjectID
	eventID    primitive.ObjectID
	ticketPick int
	quantity   int
	status     model.BookingStatus
	payment    model.PaymentMethod
	txnID      string
	seats      []string
	createdAt  time.Time
}

var (
	bookingStatuses = []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusConfirmed, model.BookingStatusCancelled}
	paymentMethods  = []model.PaymentMethod{model.PaymentCash, model.PaymentCard, model.PaymentOnline}
)

func (s *BookingServiceImpl) plan(userIDs, eventIDs []primitive.ObjectID, now time.Time) (attemptPlan, error) {
	q := s.faker.IntRange(s.profile.BookingQuantity.Min, s.profile.BookingQuantity.Max)
	seats, err := s.seatLabels(q)
	if err != nil {
		return attemptPlan{}, err
	}
	return attemptPlan{
		userID:     fake.Choice(s.faker, userIDs),
		eventID:    fake.Choice(s.faker, eventIDs),
		ticketPick: s.faker.Intn(1 << 30),
		quantity:   q,
		status:     fake.Choice(s.faker, bookingStatuses),
		payment:    fake.Choice(s.faker, paymentMethods),
		txnID:      "TXN" + strconv.Itoa(s.faker.IntRange(100000, 999999)),
		seats:      seats,
		createdAt:  s.faker.DateBetween(now.Add(-bookingCreatedWithin), now),
	}, nil
}

// seatLabels 排字母與座號各自不重複抽 q 個再配對，例如 B17
func (s *BookingServiceImpl) seatLabels(q int) ([]string, error) {
	rows, err := fake.Sample(s.faker, s.profile.SeatRows, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSeatPoolTooSmall, err)
	}
	numbers := make([]int, s.profile.SeatNumbers)
	for i := range numbers {
		numbers[i] = i + 1
	}
	picked, err := fake.Sample(s.faker, numbers, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSeatPoolTooSmall, err)
	}

	seats := make([]string, q)
	for i := range seats {
		seats[i] = rows[i] + strconv.Itoa(picked[i])
	}
	return seats, nil
}

func (s *BookingServiceImpl) Generate(ctx context.Context, n int, userIDs, eventIDs []primitive.ObjectID) ([]*model.Booking, *BookingReport, error) {
	if err := checkCount("booking attempts", n); err != nil {
		return nil, nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil, apperrors.ErrNoUsers
	}
	if len(eventIDs) == 0 {
		return nil, nil, apperrors.ErrNoEvents
	}
	if err := s.profile.Validate(); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	plans := make([]attemptPlan, n)
	for i := range plans {
		p, err := s.plan(userIDs, eventIDs, now)
		if err != nil {
			return nil, nil, err
		}
		plans[i] = p
	}

	report := &BookingReport{Attempts: n, Skipped: map[SkipReason]int{}}
	results := make([]*model.Booking, n)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range plans {
		i := i
		g.Go(func() error {
			booking, reason, released, err := s.attempt(gctx, plans[i])
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if booking == nil {
				report.Skipped[reason]++
				return nil
			}
			results[i] = booking
			report.Created++
			if released {
				report.Released++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	bookings := make([]*model.Booking, 0, report.Created)
	for _, b := range results {
		if b != nil {
			bookings = append(bookings, b)
		}
	}

	logger.Ctx(ctx, s.log).Info("booking generation finished",
		zap.Int("attempts", report.Attempts),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.TotalSkipped()),
		zap.Any("skip_reasons", report.Skipped),
	)
	return bookings, report, nil
}

// attempt 執行一次訂票嘗試。回傳 nil booking 與原因表示略過；error 表示整個流程要中止
func (s *BookingServiceImpl) attempt(ctx context.Context, p attemptPlan) (*model.Booking, SkipReason, bool, error) {
	event, err := s.eventRepo.FindByID(ctx, p.eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			logger.Ctx(ctx, s.log).Debug("skip: event not found", zap.String("event_id", p.eventID.Hex()))
			return nil, SkipMissingEvent, false, nil
		}
		return nil, "", false, err
	}
	if event.AvailableSeats <= 0 {
		return nil, SkipSoldOut, false, nil
	}
	if len(event.TicketTypes) == 0 {
		return nil, SkipNoTicketTypes, false, nil
	}

	ticket := event.TicketTypes[p.ticketPick%len(event.TicketTypes)]
	if !ticket.CanSell(p.quantity) || event.AvailableSeats < p.quantity {
		logger.Ctx(ctx, s.log).Debug("skip: insufficient inventory",
			zap.String("event_id", event.ID.Hex()),
			zap.String("ticket_type", ticket.Type),
			zap.Int("remaining", ticket.Remaining()),
			zap.Int("requested", p.quantity),
		)
		return nil, SkipInsufficient, false, nil
	}

	// 1. Redis 閘門先扣（有開啟時），成交價以閘門回傳的價格為準
	unitPrice := ticket.Price
	if s.inventoryManager != nil {
		price, err := s.inventoryManager.DecreStock(ctx, event.ID, ticket.Type, p.quantity)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInsufficientStock):
				return nil, SkipContended, false, nil
			case errors.Is(err, apperrors.ErrSoldOut):
				return nil, SkipSoldOut, false, nil
			case errors.Is(err, apperrors.ErrTicketNotFound):
				return nil, SkipMissingTicketType, false, nil
			default:
				return nil, "", false, err
			}
		}
		unitPrice = price
	}
	// 之後任何失敗都要把閘門扣掉的量還回去：用 context.Background() 確保回滾一定會執行
	rollbackGate := func() {
		if s.inventoryManager == nil {
			return
		}
		if err := s.inventoryManager.RollbackStock(context.Background(), event.ID, ticket.Type, p.quantity); err != nil {
			logger.Ctx(ctx, s.log).Error("failed to rollback gate stock", zap.String("event_id", event.ID.Hex()), zap.Error(err))
		}
	}

	// 2. store 條件扣減：檢查與扣減在同一個原子操作內
	ok, err := s.eventRepo.ReserveTickets(ctx, event.ID, ticket, p.quantity)
	if err != nil {
		rollbackGate()
		return nil, "", false, err
	}
	if !ok {
		rollbackGate()
		return nil, SkipContended, false, nil
	}

	// 3. 寫入訂單；失敗就歸還庫存，訂單存在與庫存扣減必須一致
	booking := &model.Booking{
		UserID:        p.userID,
		EventID:       event.ID,
		TicketType:    ticket.Type,
		Quantity:      p.quantity,
		TotalAmount:   unitPrice * float64(p.quantity),
		Status:        p.status,
		PaymentMethod: p.payment,
		TransactionID: p.txnID,
		Seats:         p.seats,
		CreatedAt:     p.createdAt,
		UpdatedAt:     p.createdAt,
	}
	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		if rerr := s.eventRepo.ReleaseTickets(context.Background(), event.ID, ticket.Type, p.quantity); rerr != nil {
			logger.Ctx(ctx, s.log).Error("failed to release reserved tickets", zap.String("event_id", event.ID.Hex()), zap.Error(rerr))
		}
		rollbackGate()
		return nil, "", false, fmt.Errorf("create booking: %w", err)
	}

	if s.opts.ReleaseCancelled && created.Status == model.BookingStatusCancelled {
		if err := s.eventRepo.ReleaseTickets(ctx, event.ID, ticket.Type, p.quantity); err != nil {
			return nil, "", false, fmt.Errorf("release cancelled booking: %w", err)
		}
		rollbackGate()
		return created, "", true, nil
	}

	return created, "", false, nil
}

func (s *BookingServiceImpl) OpenForSale(ctx context.Context, eventIDs []primitive.ObjectID) error {
	if s.inventoryManager == nil {
		return nil
	}
	for _, id := range eventIDs {
		event, err := s.eventRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !event.IsPublished() {
			continue
		}
		for _, t := range event.TicketTypes {
			if err := s.inventoryManager.WarmUpInventory(ctx, event.ID, t.Type, t.Remaining(), t.Price, event.AvailableSeats); err != nil {
				return fmt.Errorf("warm up inventory: %w", err)
			}
		}
	}
	logger.Ctx(ctx, s.log).Info("inventory gate warmed up", zap.Int("events", len(eventIDs)))
	return nil
}

func (s *BookingServiceImpl) AuditInventory(ctx context.Context, eventIDs []primitive.ObjectID) (*InventoryAudit, error) {
	audit := &InventoryAudit{}
	mismatch := func(format string, args ...interface{}) {
		audit.Mismatches = append(audit.Mismatches, fmt.Sprintf(format, args...))
	}

	for _, id := range eventIDs {
		event, err := s.eventRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		audit.Events++

		if sold := event.TotalSold(); event.AvailableSeats != event.Capacity-sold {
			mismatch("event %s: available_seats %d, capacity %d, sold %d", id.Hex(), event.AvailableSeats, event.Capacity, sold)
		}
		for _, t := range event.TicketTypes {
			if t.Sold < 0 || t.Sold > t.Quantity {
				mismatch("event %s ticket %s: sold %d of %d", id.Hex(), t.Type, t.Sold, t.Quantity)
			}
		}

		// 只有預熱過的（已發佈）活動才在閘門裡
		if s.inventoryManager == nil || !event.IsPublished() {
			continue
		}
		seats, err := s.inventoryManager.GetSeats(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("gate seats: %w", err)
		}
		if seats != event.AvailableSeats {
			mismatch("event %s: gate seats %d, store %d", id.Hex(), seats, event.AvailableSeats)
		}
		for _, t := range event.TicketTypes {
			info, err := s.inventoryManager.GetInfo(ctx, id, t.Type)
			if err != nil {
				return nil, fmt.Errorf("gate info: %w", err)
			}
			if info.Stock != t.Remaining() || info.Price != t.Price {
				mismatch("event %s ticket %s: gate stock %d price %.2f, store remaining %d price %.2f",
					id.Hex(), t.Type, info.Stock, info.Price, t.Remaining(), t.Price)
			}
		}
	}

	if len(audit.Mismatches) > 0 {
		logger.Ctx(ctx, s.log).Error("inventory audit failed", zap.Strings("mismatches", audit.Mismatches))
	}
	return audit, nil
}

func (s *BookingServiceImpl) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Booking, error) {
	return s.bookingRepo.FindByUserID(ctx, userID)
}
