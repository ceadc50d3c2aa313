package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/profitlens/internal/clock"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/record"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  ledgerdomain.Repository `optional:"true"`
}

// Service keeps the ledger and manual ad-spend lists in memory and writes
// every change through to the repository when one is configured.
type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  ledgerdomain.Repository

	mu      sync.RWMutex
	entries []ledgerdomain.LedgerEntry
	adSpend []ledgerdomain.AdSpendEntry
	version uint64
}

func NewService(p Params) ledgerdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: clk,
		repo:  p.Repo,
	}
}

func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("load ledger entries: %w", err)
	}
	adSpend, err := s.repo.ListAdSpend(ctx)
	if err != nil {
		return fmt.Errorf("load ad spend entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	for _, e := range entries {
		if e != nil {
			s.entries = append(s.entries, *e)
		}
	}
	s.adSpend = s.adSpend[:0]
	for _, e := range adSpend {
		if e != nil {
			s.adSpend = append(s.adSpend, *e)
		}
	}
	s.version++
	s.log.Info("ledger loaded",
		zap.Int("ledger_entries", len(s.entries)),
		zap.Int("ad_spend_entries", len(s.adSpend)),
	)
	return nil
}

// Book returns a copy of both lists at the current version.
func (s *Service) Book() ledgerdomain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledgerdomain.Book{
		Version: s.version,
		Entries: append([]ledgerdomain.LedgerEntry(nil), s.entries...),
		AdSpend: append([]ledgerdomain.AdSpendEntry(nil), s.adSpend...),
	}
}

func (s *Service) ListEntries() []ledgerdomain.LedgerEntry {
	return s.Book().Entries
}

func (s *Service) AddEntry(ctx context.Context, req ledgerdomain.CreateEntryRequest) (ledgerdomain.LedgerEntry, error) {
	date, ok := record.ToDate(req.Date)
	if !ok {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidDate
	}
	category, ok := ledgerdomain.ParseCategory(req.Category)
	if !ok {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidCategory
	}
	if !validAmount(req.Amount) {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidAmount
	}
	status, ok := ledgerdomain.ParsePaymentStatus(req.PaymentStatus)
	if !ok {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidStatus
	}

	entry := ledgerdomain.LedgerEntry{
		ID:            s.genID.Generate(),
		Date:          date,
		Category:      category,
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount,
		PaymentStatus: status,
		CreatedAt:     s.clock.Now(),
	}
	if s.repo != nil {
		if err := s.repo.InsertEntry(ctx, &entry); err != nil {
			return ledgerdomain.LedgerEntry{}, err
		}
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.version++
	s.mu.Unlock()

	s.log.Info("ledger entry added",
		zap.String("entry_id", entry.ID.String()),
		zap.String("category", string(entry.Category)),
	)
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ledgerdomain.ErrNotFound
	}
	if s.repo != nil {
		if err := s.repo.DeleteEntry(ctx, id); err != nil {
			return err
		}
	}
	next := make([]ledgerdomain.LedgerEntry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	s.entries = append(next, s.entries[idx+1:]...)
	s.version++
	return nil
}

func (s *Service) ListAdSpend() []ledgerdomain.AdSpendEntry {
	return s.Book().AdSpend
}

func (s *Service) AddAdSpend(ctx context.Context, req ledgerdomain.CreateAdSpendRequest) (ledgerdomain.AdSpendEntry, error) {
	date, ok := record.ToDate(req.Date)
	if !ok {
		return ledgerdomain.AdSpendEntry{}, ledgerdomain.ErrInvalidDate
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if platform == "" {
		return ledgerdomain.AdSpendEntry{}, ledgerdomain.ErrInvalidPlatform
	}
	if !validAmount(req.Amount) {
		return ledgerdomain.AdSpendEntry{}, ledgerdomain.ErrInvalidAmount
	}

	entry := ledgerdomain.AdSpendEntry{
		ID:             s.genID.Generate(),
		Date:           date,
		Platform:       platform,
		Amount:         req.Amount,
		Source:         ledgerdomain.AdSpendManual,
		TargetSourceID: strings.TrimSpace(req.TargetSourceID),
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      s.clock.Now(),
	}
	if s.repo != nil {
		if err := s.repo.InsertAdSpend(ctx, &entry); err != nil {
			return ledgerdomain.AdSpendEntry{}, err
		}
	}

	s.mu.Lock()
	s.adSpend = append(s.adSpend, entry)
	s.version++
	s.mu.Unlock()

	s.log.Info("ad spend entry added",
		zap.String("entry_id", entry.ID.String()),
		zap.String("platform", entry.Platform),
		zap.String("target_source_id", entry.TargetSourceID),
	)
	return entry, nil
}

func (s *Service) DeleteAdSpend(ctx context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, e := range s.adSpend {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ledgerdomain.ErrNotFound
	}
	if s.repo != nil {
		if err := s.repo.DeleteAdSpend(ctx, id); err != nil {
			return err
		}
	}
	next := make([]ledgerdomain.AdSpendEntry, 0, len(s.adSpend)-1)
	next = append(next, s.adSpend[:idx]...)
	s.adSpend = append(next, s.adSpend[idx+1:]...)
	s.version++
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
