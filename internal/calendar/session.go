package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hotel-pms-console/internal/interaction"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

const (
	DefaultDays = 14
	MaxDays     = 62
)

// ErrUnknownPanel is returned when toggling a panel that does not exist.
var ErrUnknownPanel = errors.New("unknown analytics panel")

// API is the slice of the PMS the calendar uses.  *pmsapi.Client
// satisfies it.
type API interface {
	repository.RoomSource
	repository.BookingSource
	repository.GuestSource
	repository.CompanySource
	repository.BlockSource
	interaction.BookingUpdater

	CreateBooking(ctx context.Context, in model.NewBooking) (model.Booking, error)
	CreateMultiRoomBooking(ctx context.Context, in model.MultiRoomBooking) ([]model.Booking, error)
	CreateRoomBlock(ctx context.Context, in model.NewRoomBlock) (model.RoomBlock, error)
	CancelRoomBlock(ctx context.Context, id, reason string) error
	FolioByBooking(ctx context.Context, bookingID string) (model.Folio, error)
	ListAuditLogs(ctx context.Context, q pmsapi.AuditQuery) ([]model.AuditLog, error)
	Panel(ctx context.Context, name string, from, to model.Date) ([]map[string]any, error)
}

// Options sizes a session.  Zero values take the defaults.
type Options struct {
	DefaultDays    int
	PollInterval   time.Duration
	FeedSize       int
	RoomPageSize   int
	RoomMaxPages   int
	BookingLimit   int
	BookingPadDays int
	GuestLimit     int
	CompanyLimit   int
	Pricing        interaction.PricingMode
}

// Panel is an open analytics overlay.
type Panel struct {
	Name     string           `json:"name"`
	Items    []map[string]any `json:"items"`
	From     model.Date       `json:"from"`
	To       model.Date       `json:"to"`
	LoadedAt time.Time        `json:"loaded_at"`
}

// Session is one operator's calendar.
type Session struct {
	operator string
	token    string
	api      API
	auditor  interaction.Auditor
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	rooms     *repository.RoomRepo
	bookings  *repository.BookingRepo
	guests    *repository.GuestRepo
	companies *repository.CompanyRepo
	blocks    *repository.BlockRepo

	controller *interaction.Controller
	feed       *notice.Feed

	mu       sync.Mutex
	window   repository.Window
	panels   map[string]Panel
	lastSeen time.Time
	stop     context.CancelFunc
	done     chan struct{}
}

// NewSession builds a session whose window starts today.  Nothing is loaded
// until Load is called.
func NewSession(operator string, api API, auditor interaction.Auditor, opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultDays <= 0 || opts.DefaultDays > MaxDays {
		opts.DefaultDays = DefaultDays
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.BookingLimit <= 0 {
		opts.BookingLimit = 1000
	}
	if opts.BookingPadDays < 0 {
		opts.BookingPadDays = 0
	}
	if opts.GuestLimit <= 0 {
		opts.GuestLimit = 1000
	}
	if opts.CompanyLimit <= 0 {
		opts.CompanyLimit = 200
	}
	s := &Session{
		operator:  operator,
		api:       api,
		auditor:   auditor,
		opts:      opts,
		log:       log.Named("calendar").With(zap.String("operator", operator)),
		now:       time.Now,
		rooms:     repository.NewRoomRepo(api, opts.RoomPageSize, opts.RoomMaxPages),
		bookings:  repository.NewBookingRepo(api, opts.BookingLimit, opts.BookingPadDays),
		guests:    repository.NewGuestRepo(api, opts.GuestLimit),
		companies: repository.NewCompanyRepo(api, opts.CompanyLimit),
		blocks:    repository.NewBlockRepo(api),
		feed:      notice.NewFeed(opts.FeedSize),
		panels:    make(map[string]Panel),
	}
	s.lastSeen = s.now()
	s.controller = interaction.NewController(interaction.Deps{
		Updater:     api,
		Inventory:   s,
		Auditor:     auditor,
		AfterCommit: s.afterCommit,
		Pricing:     opts.Pricing,
		Operator:    operator,
		Logger:      s.log,
	})
	s.setWindowLocked(repository.Window{Start: model.DateOf(s.now().UTC()), Days: opts.DefaultDays})
	return s
}

func (s *Session) Operator() string { return s.operator }

// Controller is the session's gesture state machine.
func (s *Session) Controller() *interaction.Controller { return s.controller }

// Feed is the session's notice history.
func (s *Session) Feed() *notice.Feed { return s.feed }

// SetToken records the operator's latest bearer token for background calls.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// IdleSince reports when the session was last used.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Room implements interaction.Inventory.
func (s *Session) Room(id string) (model.Room, bool) { return s.rooms.ByID(id) }

// Blocks implements interaction.Inventory.
func (s *Session) Blocks() []model.RoomBlock { return s.blocks.All() }

// Booking looks a booking up in the cache.
func (s *Session) Booking(id string) (model.Booking, bool) { return s.bookings.ByID(id) }

func (s *Session) Window() repository.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// SetWindow changes the visible range.  days outside [1,MaxDays] are
// clamped; zero means the default.  The caller reloads afterwards.
func (s *Session) SetWindow(start model.Date, days int) repository.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start.IsZero() {
		start = s.window.Start
	}
	if days == 0 {
		days = s.window.Days
	}
	s.setWindowLocked(repository.Window{Start: start, Days: days})
	return s.window
}

// Shift moves the window by whole windows: -1 is the previous page, 1 the
// next.
func (s *Session) Shift(pages int) repository.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.window
	s.setWindowLocked(repository.Window{Start: w.Start.AddDays(pages * w.Days), Days: w.Days})
	return s.window
}

// setWindowLocked clamps w and hands it to the date bounded stores.
func (s *Session) setWindowLocked(w repository.Window) {
	if w.Days <= 0 {
		w.Days = s.opts.DefaultDays
	}
	if w.Days > MaxDays {
		w.Days = MaxDays
	}
	s.window = w
	s.bookings.SetWindow(w)
	s.blocks.SetWindow(w)
}

// Load refreshes every store in parallel.  Each store that fails keeps its
// previous snapshot and yields one notice; the others still update.  The
// returned error joins the individual failures.  Open overlays follow a
// window change.
func (s *Session) Load(ctx context.Context, n notice.Notifier) error {
	ctx = s.withToken(ctx)
	type loader struct {
		label   string
		refresh func(context.Context) error
	}
	loaders := []loader{
		{"rooms", s.rooms.Refresh},
		{"bookings", s.bookings.Refresh},
		{"guests", s.guests.Refresh},
		{"companies", s.companies.Refresh},
		{"room blocks", s.blocks.Refresh},
	}
	errs := make([]error, len(loaders))
	var g errgroup.Group
	for i, l := range loaders {
		g.Go(func() error {
			errs[i] = l.refresh(ctx)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		label := loaders[i].label
		s.log.Warn("load failed", zap.String("store", label), zap.Error(err))
		if pmsapi.IsForbidden(err) {
			n.Notify(notice.New(notice.LevelError, notice.CategoryPermission,
				fmt.Sprintf("You do not have permission to view %s", label)))
			continue
		}
		n.Notify(notice.New(notice.LevelError, notice.CategoryLoad,
			pmsapi.Message(err, fmt.Sprintf("Failed to load %s", label))))
	}
	s.refreshPanels(ctx)
	return errors.Join(errs...)
}

// reloadAll is Load after a mutation.
func (s *Session) reloadAll(ctx context.Context, n notice.Notifier) {
	_ = s.Load(ctx, n)
}

// afterCommit moves the window to the booking's new check-in after a room
// move, then reloads everything.
func (s *Session) afterCommit(ctx context.Context, n notice.Notifier, kind interaction.Kind, updated model.Booking) {
	if kind == interaction.KindMove && !updated.CheckIn.IsZero() {
		s.SetWindow(updated.CheckIn, 0)
	}
	s.reloadAll(ctx, n)
}

// View renders the current caches.
func (s *Session) View() View {
	w := s.Window()
	return Render(Input{
		RangeStart: w.Start,
		Days:       w.Days,
		Today:      model.DateOf(s.now().UTC()),
		Rooms:      s.rooms.All(),
		Bookings:   s.bookings.All(),
		Guests:     s.guests.All(),
		Blocks:     s.blocks.All(),
		Panels:     s.OpenPanels(),
	})
}

// TogglePanel opens or closes an analytics overlay.  Opening fetches its
// data for the current window; a failed fetch leaves the panel open and
// empty without a notice.  Closing discards the panel's data and nothing
// else.
func (s *Session) TogglePanel(ctx context.Context, name string, open bool) (Panel, error) {
	if !pmsapi.KnownPanel(name) {
		return Panel{}, ErrUnknownPanel
	}
	if !open {
		s.mu.Lock()
		delete(s.panels, name)
		s.mu.Unlock()
		return Panel{Name: name, Items: []map[string]any{}}, nil
	}
	p := s.fetchPanel(ctx, name, s.Window())
	s.mu.Lock()
	s.panels[name] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Session) fetchPanel(ctx context.Context, name string, w repository.Window) Panel {
	items, err := s.api.Panel(s.withToken(ctx), name, w.Start, w.End())
	if err != nil {
		s.log.Debug("analytics panel unavailable", zap.String("panel", name), zap.Error(err))
		items = nil
	}
	if items == nil {
		items = []map[string]any{}
	}
	return Panel{Name: name, Items: items, From: w.Start, To: w.End(), LoadedAt: s.now().UTC()}
}

// refreshPanels refetches open overlays that were loaded for another
// window.  Failures empty the panel silently, as on open.
func (s *Session) refreshPanels(ctx context.Context) {
	w := s.Window()
	for _, p := range s.OpenPanels() {
		if p.From.Equal(w.Start) && p.To.Equal(w.End()) {
			continue
		}
		fresh := s.fetchPanel(ctx, p.Name, w)
		s.mu.Lock()
		if _, open := s.panels[p.Name]; open {
			s.panels[p.Name] = fresh
		}
		s.mu.Unlock()
	}
}

// OpenPanels lists open overlays by name.
func (s *Session) OpenPanels() []Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Panel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Session) panelsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels) > 0
}

// Poll runs one silent booking refresh.  It is skipped while an overlay is
// open or a gesture is in progress.  Errors are logged only.
func (s *Session) Poll(ctx context.Context) (changed bool) {
	if s.panelsOpen() || s.controller.State() != interaction.Idle {
		return false
	}
	changed, err := s.bookings.RefreshIfChanged(s.withToken(ctx))
	if err != nil {
		s.log.Debug("poll failed", zap.Error(err))
		return false
	}
	if changed {
		s.log.Debug("bookings changed upstream")
	}
	return changed
}

// StartPolling runs Poll every PollInterval until ctx is cancelled or Stop
// is called.  Calling it twice has no effect.
func (s *Session) StartPolling(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(s.opts.PollInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Poll(ctx)
			}
		}
	}()
}

// Stop ends polling and waits for the poller to exit.
func (s *Session) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
}

// withToken attaches the operator's token when ctx does not already carry
// one from the current request.
func (s *Session) withToken(ctx context.Context) context.Context {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" || pmsapi.HasBearer(ctx) {
		return ctx
	}
	return pmsapi.WithBearer(ctx, token)
}
