package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/desert-paths/internal/model"
	"github.com/iliyamo/desert-paths/internal/payment"
	"github.com/iliyamo/desert-paths/internal/queue"
	"github.com/iliyamo/desert-paths/internal/repository"
)

// world is an in-memory backend shared by the fake stores below.  Each
// store method takes the lock, so the fakes are safe for concurrent use
// like the MySQL repositories they replace.
type world struct {
	mu       sync.Mutex
	users    map[uint64]*model.User
	lands    map[uint64]*model.Land
	journeys map[uint64]*model.Journey
	styles   map[uint64]*model.Style
	bookings map[uint64]*model.Booking
	payments map[uint64]*model.Payment
	reviews  map[uint64]*model.Review
	nextID   uint64

	// landsInUse makes DeleteLand fail like a foreign key violation.
	landsInUse map[uint64]bool
}

func newWorld() *world {
	return &world{
		users:      map[uint64]*model.User{},
		lands:      map[uint64]*model.Land{},
		journeys:   map[uint64]*model.Journey{},
		styles:     map[uint64]*model.Style{},
		bookings:   map[uint64]*model.Booking{},
		payments:   map[uint64]*model.Payment{},
		reviews:    map[uint64]*model.Review{},
		landsInUse: map[uint64]bool{},
		nextID:     100,
	}
}

func (w *world) id() uint64 {
	w.nextID++
	return w.nextID
}

func (w *world) summary(b *model.Booking) model.BookingSummary {
	s := model.BookingSummary{Booking: *b}
	if j, ok := w.journeys[b.JourneyID]; ok {
		s.JourneyTitle, s.JourneySlug = j.Title, j.Slug
	}
	if st, ok := w.styles[b.StyleID]; ok {
		s.StyleName = st.Name
	}
	if u, ok := w.users[b.UserID]; ok {
		s.CustomerName = u.FullName()
	}
	return s
}

// ---- bookings ----

type fakeBookings struct{ w *world }

func (f fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, other := range f.w.bookings {
		if other.Reference == b.Reference {
			return repository.ErrDuplicate
		}
	}
	b.ID = f.w.id()
	cp := *b
	f.w.bookings[b.ID] = &cp
	return nil
}

func (f fakeBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	b, ok := f.w.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f fakeBookings) GetSummary(_ context.Context, id uint64) (*model.BookingSummary, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	b, ok := f.w.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s := f.w.summary(b)
	return &s, nil
}

func (f fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.BookingSummary, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.BookingSummary
	for _, b := range f.w.bookings {
		if b.UserID == userID {
			out = append(out, f.w.summary(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeBookings) List(_ context.Context, flt repository.BookingFilter) ([]model.BookingSummary, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.BookingSummary
	for _, b := range f.w.bookings {
		if flt.Status == "" || b.Status == flt.Status {
			out = append(out, f.w.summary(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeBookings) update(id uint64, fn func(*model.Booking)) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	b, ok := f.w.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(b)
	return nil
}

func (f fakeBookings) UpdateStatus(_ context.Context, id uint64, st model.BookingStatus) error {
	return f.update(id, func(b *model.Booking) { b.Status = st })
}

func (f fakeBookings) TransitionStatus(_ context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	b, ok := f.w.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (f fakeBookings) MarkPaid(_ context.Context, id uint64) error {
	return f.update(id, func(b *model.Booking) { b.IsPaid = true })
}

func (f fakeBookings) Complete(_ context.Context, id uint64) error {
	return f.update(id, func(b *model.Booking) { b.Status, b.IsPaid = model.BookingCompleted, true })
}

func (f fakeBookings) SetNotes(_ context.Context, id uint64, notes *string) error {
	return f.update(id, func(b *model.Booking) { b.AdminNotes = notes })
}

func (f fakeBookings) HasCompleted(_ context.Context, userID, journeyID uint64) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, b := range f.w.bookings {
		if b.UserID == userID && b.JourneyID == journeyID && b.Status == model.BookingCompleted {
			return true, nil
		}
	}
	return false, nil
}

// ---- payments ----

type fakePayments struct{ w *world }

func (f fakePayments) Create(_ context.Context, p *model.Payment) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, other := range f.w.payments {
		if other.TransactionRef == p.TransactionRef {
			return repository.ErrDuplicate
		}
	}
	p.ID = f.w.id()
	cp := *p
	f.w.payments[p.ID] = &cp
	return nil
}

func (f fakePayments) byRef(ref string) *model.Payment {
	for _, p := range f.w.payments {
		if p.TransactionRef == ref {
			return p
		}
	}
	return nil
}

func (f fakePayments) GetByTransactionRef(_ context.Context, ref string) (*model.Payment, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p := f.byRef(ref)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakePayments) ListByBooking(_ context.Context, bookingID uint64) ([]model.Payment, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Payment
	for _, p := range f.w.payments {
		if p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakePayments) LatestForBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	ps, _ := f.ListByBooking(ctx, bookingID)
	if len(ps) == 0 {
		return nil, repository.ErrNotFound
	}
	return &ps[0], nil
}

func (f fakePayments) Settle(_ context.Context, ref string, out repository.PaymentOutcome) (*repository.Settlement, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p := f.byRef(ref)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	if p.Status.Terminal() {
		return &repository.Settlement{Payment: *p}, nil
	}
	code, msg, at := out.ResponseCode, out.ResponseMessage, out.At
	p.ResponseCode, p.ResponseMessage, p.UpdatedAt = &code, &msg, &at
	p.Status = model.PaymentFailed
	s := &repository.Settlement{Applied: true}
	if out.Success {
		p.Status = model.PaymentCompleted
		p.PaidAt = &at
		b := f.w.bookings[p.BookingID]
		b.IsPaid = true
		if b.Status == model.BookingPending {
			b.Status = model.BookingConfirmed
			s.BookingConfirmed = true
		}
	}
	s.Payment = *p
	return s, nil
}

// ---- reviews ----

type fakeReviews struct{ w *world }

func (f fakeReviews) Create(_ context.Context, r *model.Review) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, other := range f.w.reviews {
		if other.UserID == r.UserID && other.JourneyID == r.JourneyID {
			return repository.ErrDuplicate
		}
	}
	r.ID = f.w.id()
	cp := *r
	f.w.reviews[r.ID] = &cp
	return nil
}

func (f fakeReviews) Exists(_ context.Context, userID, journeyID uint64) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, r := range f.w.reviews {
		if r.UserID == userID && r.JourneyID == journeyID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeReviews) ReviewedJourneys(_ context.Context, userID uint64) (map[uint64]bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := map[uint64]bool{}
	for _, r := range f.w.reviews {
		if r.UserID == userID {
			out[r.JourneyID] = true
		}
	}
	return out, nil
}

func (f fakeReviews) list(keep func(*model.Review) bool) []model.ReviewSummary {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.ReviewSummary
	for _, r := range f.w.reviews {
		if keep(r) {
			out = append(out, model.ReviewSummary{Review: *r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeReviews) ListApproved(_ context.Context, journeyID uint64) ([]model.ReviewSummary, error) {
	return f.list(func(r *model.Review) bool { return r.JourneyID == journeyID && r.IsApproved }), nil
}

func (f fakeReviews) ListAll(context.Context) ([]model.ReviewSummary, error) {
	return f.list(func(*model.Review) bool { return true }), nil
}

func (f fakeReviews) Approve(_ context.Context, id uint64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.IsApproved = true
	return nil
}

func (f fakeReviews) Delete(_ context.Context, id uint64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.w.reviews, id)
	return nil
}

// ---- catalog ----

type fakeCatalog struct{ w *world }

func (f fakeCatalog) ListLands(_ context.Context, activeOnly bool) ([]model.Land, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Land
	for _, l := range f.w.lands {
		if !activeOnly || l.IsActive {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f fakeCatalog) GetLand(_ context.Context, id uint64) (*model.Land, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	l, ok := f.w.lands[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f fakeCatalog) GetLandBySlug(_ context.Context, slug string) (*model.Land, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, l := range f.w.lands {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeCatalog) landSlugTaken(slug string, except uint64) bool {
	for _, l := range f.w.lands {
		if l.Slug == slug && l.ID != except {
			return true
		}
	}
	return false
}

func (f fakeCatalog) CreateLand(_ context.Context, l *model.Land) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.landSlugTaken(l.Slug, 0) {
		return repository.ErrDuplicate
	}
	l.ID = f.w.id()
	cp := *l
	f.w.lands[l.ID] = &cp
	return nil
}

func (f fakeCatalog) UpdateLand(_ context.Context, l *model.Land) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.lands[l.ID]; !ok {
		return repository.ErrNotFound
	}
	if f.landSlugTaken(l.Slug, l.ID) {
		return repository.ErrDuplicate
	}
	cp := *l
	f.w.lands[l.ID] = &cp
	return nil
}

func (f fakeCatalog) DeleteLand(_ context.Context, id uint64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.lands[id]; !ok {
		return repository.ErrNotFound
	}
	for _, j := range f.w.journeys {
		if j.LandID == id {
			return repository.ErrConflict
		}
	}
	delete(f.w.lands, id)
	return nil
}

func (f fakeCatalog) ListJourneys(_ context.Context, flt repository.JourneyFilter) ([]model.Journey, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Journey
	for _, j := range f.w.journeys {
		if flt.LandID != 0 && j.LandID != flt.LandID {
			continue
		}
		if flt.FeaturedOnly && !j.IsFeatured {
			continue
		}
		if flt.ActiveOnly && !j.IsActive {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCatalog) GetJourney(_ context.Context, id uint64) (*model.Journey, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	j, ok := f.w.journeys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (f fakeCatalog) GetJourneyBySlug(_ context.Context, slug string) (*model.Journey, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, j := range f.w.journeys {
		if j.Slug == slug {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeCatalog) journeySlugTaken(slug string, except uint64) bool {
	for _, j := range f.w.journeys {
		if j.Slug == slug && j.ID != except {
			return true
		}
	}
	return false
}

func (f fakeCatalog) CreateJourney(_ context.Context, j *model.Journey) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.journeySlugTaken(j.Slug, 0) {
		return repository.ErrDuplicate
	}
	j.ID = f.w.id()
	cp := *j
	f.w.journeys[j.ID] = &cp
	return nil
}

func (f fakeCatalog) UpdateJourney(_ context.Context, j *model.Journey) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.journeys[j.ID]; !ok {
		return repository.ErrNotFound
	}
	if f.journeySlugTaken(j.Slug, j.ID) {
		return repository.ErrDuplicate
	}
	cp := *j
	f.w.journeys[j.ID] = &cp
	return nil
}

func (f fakeCatalog) DeleteJourney(_ context.Context, id uint64) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.journeys[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range f.w.bookings {
		if b.JourneyID == id {
			return repository.ErrConflict
		}
	}
	delete(f.w.journeys, id)
	return nil
}

func (f fakeCatalog) ListStyles(_ context.Context, activeOnly bool) ([]model.Style, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Style
	for _, s := range f.w.styles {
		if !activeOnly || s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Multiplier < out[j].Multiplier })
	return out, nil
}

func (f fakeCatalog) GetStyle(_ context.Context, id uint64) (*model.Style, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.styles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// ---- users ----

type fakeUsers struct{ w *world }

func (f fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) List(context.Context) ([]model.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.User
	for _, u := range f.w.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) SetRole(_ context.Context, id uint64, role string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f fakeUsers) SetBlocked(_ context.Context, id uint64, blocked bool) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsBlocked = blocked
	return nil
}

// ---- stats ----

type fakeStats struct{ w *world }

func (f fakeStats) Dashboard(_ context.Context, recent int) (*model.DashboardCounts, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	d := &model.DashboardCounts{
		Lands:    len(f.w.lands),
		Journeys: len(f.w.journeys),
		Bookings: len(f.w.bookings),
		Users:    len(f.w.users),
	}
	for _, b := range f.w.bookings {
		if b.Status == model.BookingPending {
			d.PendingBookings++
		}
	}
	for _, r := range f.w.reviews {
		if !r.IsApproved {
			d.PendingReviews++
		}
	}
	return d, nil
}

// ---- events ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// ---- fixture ----

// Fixed clock: 2026-03-01 10:00 UTC.
var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

const (
	customerID = 1
	otherID    = 2
	managerID  = 3
	adminID    = 4

	landID       = 10
	journeyID    = 20
	inactiveJID  = 21
	standardID   = 30
	comfortID    = 31
	retiredStyle = 32
)

// seed fills w with one land, an active and an inactive journey priced
// at 2500.00 per guest, and three styles.
func seed(w *world) {
	phone := "+966501234567"
	w.users[customerID] = &model.User{ID: customerID, Email: "sara@example.com", FirstName: "Sara", LastName: "Ali", Phone: &phone, Role: model.RoleCustomer}
	w.users[otherID] = &model.User{ID: otherID, Email: "omar@example.com", FirstName: "Omar", Role: model.RoleCustomer}
	w.users[managerID] = &model.User{ID: managerID, Email: "mona@example.com", FirstName: "Mona", Role: model.RoleManager}
	w.users[adminID] = &model.User{ID: adminID, Email: "admin@example.com", FirstName: "Admin", Role: model.RoleAdmin}

	w.lands[landID] = &model.Land{ID: landID, Name: "AlUla", Slug: "alula", IsActive: true}
	w.journeys[journeyID] = &model.Journey{ID: journeyID, LandID: landID, DefaultStyleID: standardID, Title: "Hegra by Night",
		Slug: "hegra-by-night", DurationDays: 3, DurationNights: 2, PriceFromCents: 250000, MaxGroupSize: 8,
		Difficulty: "Moderate", IsFeatured: true, IsActive: true}
	w.journeys[inactiveJID] = &model.Journey{ID: inactiveJID, LandID: landID, DefaultStyleID: standardID, Title: "Old Tour",
		Slug: "old-tour", DurationDays: 1, PriceFromCents: 10000, MaxGroupSize: 4, Difficulty: "Easy"}
	w.styles[standardID] = &model.Style{ID: standardID, Name: "Standard", Multiplier: 100, IsActive: true}
	w.styles[comfortID] = &model.Style{ID: comfortID, Name: "Comfort", Multiplier: 150, IsActive: true}
	w.styles[retiredStyle] = &model.Style{ID: retiredStyle, Name: "Retired", Multiplier: 200}
}

type fixture struct {
	w         *world
	bookings  *BookingService
	reviews   *ReviewService
	catalog   *CatalogService
	users     *UserService
	events    *recordingPublisher
	mockStore *payment.MockStore
}

func newFixture() *fixture {
	return newFixtureWithGateway(nil)
}

func newFixtureWithGateway(gw payment.Gateway) *fixture {
	w := newWorld()
	seed(w)
	store := payment.NewMockStore()
	if gw == nil {
		gw = payment.NewMockGateway(store)
	}
	events := &recordingPublisher{}
	bs := NewBookingService(BookingDeps{
		Bookings: fakeBookings{w},
		Payments: fakePayments{w},
		Reviews:  fakeReviews{w},
		Catalog:  fakeCatalog{w},
		Users:    fakeUsers{w},
		Stats:    fakeStats{w},
		Gateway:  gw,
		Events:   events,
		Clock:    fixedClock,
		Currency: "SAR",
	})
	return &fixture{
		w:         w,
		bookings:  bs,
		reviews:   NewReviewService(fakeReviews{w}, fakeBookings{w}, fakeCatalog{w}, nil, fixedClock),
		catalog:   NewCatalogService(fakeCatalog{w}, fakeReviews{w}, nil),
		users:     NewUserService(fakeUsers{w}, nil),
		events:    events,
		mockStore: store,
	}
}

// addBooking stores a booking directly, bypassing the creation rules.
func (f *fixture) addBooking(userID uint64, status model.BookingStatus, travel time.Time) *model.Booking {
	b := &model.Booking{
		Reference:     "DP-TEST-" + string(rune('A'+len(f.w.bookings))),
		JourneyID:     journeyID,
		UserID:        userID,
		StyleID:       standardID,
		TravelDate:    travel,
		Guests:        2,
		TotalCents:    500000,
		Status:        status,
		PaymentMethod: model.PaymentOnline,
	}
	_ = fakeBookings{f.w}.Create(context.Background(), b)
	return b
}

func (f *fixture) booking(id uint64) model.Booking {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	return *f.w.bookings[id]
}

func day(offset int) time.Time {
	return dateOf(testNow).AddDate(0, 0, offset)
}

func dayStr(offset int) string {
	return day(offset).Format("2006-01-02")
}
