// Package dashboard serves the CRUD pages around the calendar.  Every page
// follows one contract: its lists load in parallel with explicit limits, a
// failed list becomes an empty section plus one notice, and a mutation is a
// single request followed by a refetch of the lists it touched.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// ErrUnknownPage is returned for a page or section name that is not served.
var ErrUnknownPage = errors.New("unknown dashboard page")

// Section is one list on a page.
type Section struct {
	Name         string           `json:"name"`
	Title        string           `json:"title"`
	Items        any              `json:"items"`
	Count        int              `json:"count"`
	EmptyMessage string           `json:"empty_message,omitempty"`
	Total        *decimal.Decimal `json:"total,omitempty"`
	Failed       bool             `json:"failed,omitempty"`
}

// Page is a set of sections plus the mutations the page offers.
type Page struct {
	Name      string    `json:"name"`
	Sections  []Section `json:"sections"`
	Mutations []string  `json:"mutations"`
}

// Degraded reports whether any section failed to load.
func (p Page) Degraded() bool {
	for _, s := range p.Sections {
		if s.Failed {
			return true
		}
	}
	return false
}

// loadResult is what a section loader hands back.
type loadResult struct {
	items any
	count int
	total *decimal.Decimal
}

type sectionDef struct {
	name  string
	title string
	empty string
	load  func(ctx context.Context, limit int) (loadResult, error)
}

type pageDef struct {
	name      string
	sections  []sectionDef
	mutations []string
}

func (p pageDef) section(name string) (sectionDef, bool) {
	for _, s := range p.sections {
		if s.name == name {
			return s, true
		}
	}
	return sectionDef{}, false
}

// listing adapts a limited list call into a section loader.  A nil slice
// becomes an empty one so pages always render a list.
func listing[T any](fn func(ctx context.Context, limit int) ([]T, error)) func(context.Context, int) (loadResult, error) {
	return func(ctx context.Context, limit int) (loadResult, error) {
		items, err := fn(ctx, limit)
		if err != nil {
			return loadResult{}, err
		}
		if items == nil {
			items = []T{}
		}
		return loadResult{items: items, count: len(items)}, nil
	}
}

// Service loads pages and runs their mutations.
type Service struct {
	api   API
	limit int
	log   *zap.Logger
	pages map[string]pageDef
}

func NewService(api API, limit int, log *zap.Logger) *Service {
	if limit <= 0 {
		limit = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{api: api, limit: limit, log: log.Named("dashboard")}
	s.pages = s.definePages()
	return s
}

// Pages lists the served page names in order.
func (s *Service) Pages() []string {
	out := make([]string, 0, len(s.pages))
	for name := range s.pages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load fetches every section of a page.
func (s *Service) Load(ctx context.Context, page string, n notice.Notifier) (Page, error) {
	def, ok := s.pages[page]
	if !ok {
		return Page{}, ErrUnknownPage
	}
	return s.loadSections(ctx, def, def.sections, n), nil
}

// Refetch reloads only the named sections of a page.
func (s *Service) Refetch(ctx context.Context, page string, names []string, n notice.Notifier) (Page, error) {
	def, ok := s.pages[page]
	if !ok {
		return Page{}, ErrUnknownPage
	}
	defs := make([]sectionDef, 0, len(names))
	for _, name := range names {
		sd, ok := def.section(name)
		if !ok {
			return Page{}, fmt.Errorf("%w: section %s", ErrUnknownPage, name)
		}
		defs = append(defs, sd)
	}
	return s.loadSections(ctx, def, defs, n), nil
}

func (s *Service) loadSections(ctx context.Context, def pageDef, defs []sectionDef, n notice.Notifier) Page {
	sections := make([]Section, len(defs))
	errs := make([]error, len(defs))
	var g errgroup.Group
	for i, sd := range defs {
		g.Go(func() error {
			res, err := sd.load(ctx, s.limit)
			errs[i] = err
			sections[i] = sectionFrom(sd, res, err)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		sd := defs[i]
		s.log.Warn("section load failed", zap.String("page", def.name), zap.String("section", sd.name), zap.Error(err))
		if pmsapi.IsForbidden(err) {
			n.Notify(notice.New(notice.LevelError, notice.CategoryPermission,
				fmt.Sprintf("You do not have permission to view %s", sd.title)))
			continue
		}
		n.Notify(notice.New(notice.LevelError, notice.CategoryLoad,
			pmsapi.Message(err, fmt.Sprintf("Failed to load %s", sd.title))))
	}
	return Page{Name: def.name, Sections: sections, Mutations: def.mutations}
}

func sectionFrom(sd sectionDef, res loadResult, err error) Section {
	sec := Section{Name: sd.name, Title: sd.title, Items: res.items, Count: res.count, Total: res.total}
	if err != nil {
		sec.Failed = true
		sec.Items = []any{}
		sec.Count = 0
		sec.Total = nil
	}
	if sec.Items == nil {
		sec.Items = []any{}
	}
	if sec.Count == 0 {
		sec.EmptyMessage = sd.empty
	}
	return sec
}

// mutate runs one call and, when it succeeds, refetches the affected
// sections.  A failure yields exactly one error notice.
func (s *Service) mutate(ctx context.Context, page string, affected []string, n notice.Notifier, ok, failed string, call func(context.Context) error) (Page, error) {
	def, known := s.pages[page]
	if !known {
		return Page{}, ErrUnknownPage
	}
	if err := call(ctx); err != nil {
		s.log.Warn("mutation failed", zap.String("page", page), zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, failed)))
		return Page{}, err
	}
	notice.Success(n, ok)
	if len(affected) == 0 {
		return Page{Name: def.name, Sections: []Section{}, Mutations: def.mutations}, nil
	}
	return s.Refetch(ctx, page, affected, n)
}
